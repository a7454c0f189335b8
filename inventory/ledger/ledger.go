// Package ledger implements the lot ledger: the single in-process owner of
// stock lot state per item and branch. Lots are created on receipt, drained
// by allocation, corrected by adjustment, and retired (but kept for audit)
// once drained or expired.
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

// Compile-time check to ensure Ledger implements LotLedger
var _ interfaces.LotLedger = (*Ledger)(nil)

// Ledger holds all lots, indexed by (sku, branch) key and by lot ID, plus the
// append-only dispense audit trail. A single RWMutex guards the lot indexes;
// the allocator layers its own per-key serialization on top for FEFO scans.
type Ledger struct {
	mu     sync.RWMutex
	byKey  map[string][]*entities.Lot
	byID   map[string]*entities.Lot
	recMu  sync.RWMutex
	record []entities.DispenseRecord
	now    func() time.Time
}

// New creates an empty ledger using the wall clock.
func New() *Ledger {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty ledger with an injected clock. Tests use a
// fixed clock so expiry-based retirement is deterministic.
func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		byKey: make(map[string][]*entities.Lot),
		byID:  make(map[string]*entities.Lot),
		now:   now,
	}
}

func lotKey(sku string, branchID int) string {
	return sku + "|" + strconv.Itoa(branchID)
}

// Receive creates a new lot with QuantityRemaining equal to the received
// quantity. It rejects non-positive quantities and expiry dates that are not
// in the future, before any mutation.
func (l *Ledger) Receive(sku string, branchID int, lotNumber string, quantity int,
	expiry time.Time, unitCost decimal.Decimal) (entities.Lot, error) {

	if sku == "" {
		return entities.Lot{}, fmt.Errorf("%w: empty sku", entities.ErrInvalidInput)
	}
	if branchID <= 0 {
		return entities.Lot{}, fmt.Errorf("%w: branch id %d", entities.ErrInvalidInput, branchID)
	}
	if lotNumber == "" {
		return entities.Lot{}, fmt.Errorf("%w: empty lot number", entities.ErrInvalidInput)
	}
	if quantity <= 0 {
		return entities.Lot{}, fmt.Errorf("%w: quantity %d must be positive", entities.ErrInvalidInput, quantity)
	}
	now := l.now()
	if !expiry.After(now) {
		return entities.Lot{}, fmt.Errorf("%w: expiry %s is in the past", entities.ErrInvalidInput, expiry.Format("2006-01-02"))
	}
	if unitCost.IsNegative() {
		return entities.Lot{}, fmt.Errorf("%w: negative unit cost %s", entities.ErrInvalidInput, unitCost)
	}

	lot := &entities.Lot{
		ID:                uuid.NewString(),
		LotNumber:         lotNumber,
		SKU:               sku,
		BranchID:          branchID,
		QuantityReceived:  quantity,
		QuantityRemaining: quantity,
		ExpiryDate:        expiry,
		ReceiptDate:       now,
		UnitCost:          unitCost,
	}

	l.mu.Lock()
	key := lotKey(sku, branchID)
	l.byKey[key] = append(l.byKey[key], lot)
	l.byID[lot.ID] = lot
	l.mu.Unlock()

	logging.Info("Lot received",
		"sku", sku,
		"branch_id", branchID,
		"lot_number", lotNumber,
		"quantity", quantity,
		"expiry", expiry.Format("2006-01-02"))

	return *lot, nil
}

// AvailableLots returns copies of the non-retired lots for an item/branch in
// FEFO order: expiry ascending, ties broken by receipt date ascending, then
// lot number ascending. Re-querying without an intervening receive or deduct
// yields an identical sequence.
func (l *Ledger) AvailableLots(sku string, branchID int) []entities.Lot {
	now := l.now()

	l.mu.RLock()
	stored := l.byKey[lotKey(sku, branchID)]
	available := make([]entities.Lot, 0, len(stored))
	for _, lot := range stored {
		if !lot.Retired(now) {
			available = append(available, *lot)
		}
	}
	l.mu.RUnlock()

	sort.Slice(available, func(i, j int) bool {
		a, b := available[i], available[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.ReceiptDate.Equal(b.ReceiptDate) {
			return a.ReceiptDate.Before(b.ReceiptDate)
		}
		return a.LotNumber < b.LotNumber
	})

	return available
}

// Deduct decrements a lot's remaining quantity. It fails with
// ErrInsufficientStock when the lot holds less than the requested quantity;
// the lot is left untouched on any error.
func (l *Ledger) Deduct(lotID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity %d must be positive", entities.ErrInvalidInput, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lot, ok := l.byID[lotID]
	if !ok {
		return fmt.Errorf("%w: lot %s", entities.ErrNotFound, lotID)
	}
	if quantity > lot.QuantityRemaining {
		return fmt.Errorf("%w: lot %s holds %d, requested %d",
			entities.ErrInsufficientStock, lot.LotNumber, lot.QuantityRemaining, quantity)
	}

	lot.QuantityRemaining -= quantity
	return nil
}

// Adjust sets a lot's remaining quantity to an audited correction value,
// bounded by [0, QuantityReceived].
func (l *Ledger) Adjust(lotID string, quantityRemaining int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lot, ok := l.byID[lotID]
	if !ok {
		return fmt.Errorf("%w: lot %s", entities.ErrNotFound, lotID)
	}
	if quantityRemaining < 0 || quantityRemaining > lot.QuantityReceived {
		return fmt.Errorf("%w: correction %d outside [0, %d]",
			entities.ErrInvalidInput, quantityRemaining, lot.QuantityReceived)
	}

	logging.Warn("Lot quantity corrected",
		"lot_number", lot.LotNumber,
		"sku", lot.SKU,
		"branch_id", lot.BranchID,
		"previous", lot.QuantityRemaining,
		"corrected", quantityRemaining)

	lot.QuantityRemaining = quantityRemaining
	return nil
}

// LotByID returns a copy of a lot regardless of retirement state.
func (l *Ledger) LotByID(lotID string) (entities.Lot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lot, ok := l.byID[lotID]
	if !ok {
		return entities.Lot{}, false
	}
	return *lot, true
}

// BranchStock returns total remaining non-retired units of an item per branch.
// The map is built under one read lock, so it is a consistent point-in-time
// snapshot across branches.
func (l *Ledger) BranchStock(sku string) map[int]int {
	now := l.now()
	stock := make(map[int]int)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, lots := range l.byKey {
		for _, lot := range lots {
			if lot.SKU == sku && !lot.Retired(now) {
				stock[lot.BranchID] += lot.QuantityRemaining
			}
		}
	}
	return stock
}

// ExpiringLots returns lots holding stock that expire within the window,
// soonest first. A branchID of 0 scans every branch. Already-expired lots
// with remaining stock are included so they surface in alerts.
func (l *Ledger) ExpiringLots(branchID int, window time.Duration) []entities.Lot {
	cutoff := l.now().Add(window)

	l.mu.RLock()
	var expiring []entities.Lot
	for _, lots := range l.byKey {
		for _, lot := range lots {
			if branchID != 0 && lot.BranchID != branchID {
				continue
			}
			if lot.QuantityRemaining > 0 && lot.ExpiryDate.Before(cutoff) {
				expiring = append(expiring, *lot)
			}
		}
	}
	l.mu.RUnlock()

	sort.Slice(expiring, func(i, j int) bool {
		if !expiring[i].ExpiryDate.Equal(expiring[j].ExpiryDate) {
			return expiring[i].ExpiryDate.Before(expiring[j].ExpiryDate)
		}
		return expiring[i].LotNumber < expiring[j].LotNumber
	})

	return expiring
}

// BranchLots returns copies of every lot held at a branch, including retired
// ones, sorted by SKU then FEFO order. Used for branch inventory summaries.
func (l *Ledger) BranchLots(branchID int) []entities.Lot {
	l.mu.RLock()
	var lots []entities.Lot
	for _, stored := range l.byKey {
		for _, lot := range stored {
			if lot.BranchID == branchID {
				lots = append(lots, *lot)
			}
		}
	}
	l.mu.RUnlock()

	sort.Slice(lots, func(i, j int) bool {
		if lots[i].SKU != lots[j].SKU {
			return lots[i].SKU < lots[j].SKU
		}
		if !lots[i].ExpiryDate.Equal(lots[j].ExpiryDate) {
			return lots[i].ExpiryDate.Before(lots[j].ExpiryDate)
		}
		return lots[i].LotNumber < lots[j].LotNumber
	})

	return lots
}

// RecordDispense appends a dispense record to the audit trail. Records are
// immutable once appended.
func (l *Ledger) RecordDispense(rec entities.DispenseRecord) {
	l.recMu.Lock()
	l.record = append(l.record, rec)
	l.recMu.Unlock()
}

// Dispenses returns up to limit dispense records, newest first. A branchID
// of 0 returns records for every branch.
func (l *Ledger) Dispenses(branchID int, limit int) []entities.DispenseRecord {
	if limit <= 0 {
		limit = 100
	}

	l.recMu.RLock()
	defer l.recMu.RUnlock()

	out := make([]entities.DispenseRecord, 0, limit)
	for i := len(l.record) - 1; i >= 0 && len(out) < limit; i-- {
		if branchID == 0 || l.record[i].BranchID == branchID {
			out = append(out, l.record[i])
		}
	}
	return out
}

// TotalLots returns the number of lots ever received, retired included.
func (l *Ledger) TotalLots() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}
