// Package allocator implements FEFO stock dispensation over the lot ledger.
package allocator

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

// Compile-time check to ensure Allocator implements Dispenser
var _ interfaces.Dispenser = (*Allocator)(nil)

// Allocator serializes allocations per (item, branch) key so each FEFO
// scan-then-deduct sequence is atomic with respect to other allocations on
// the same key. Allocations on different keys run fully in parallel.
type Allocator struct {
	ledger interfaces.LotLedger
	mu     sync.Mutex
	keys   map[string]*sync.Mutex
	now    func() time.Time
}

// New creates an allocator over the given ledger.
func New(ledger interfaces.LotLedger) *Allocator {
	return &Allocator{
		ledger: ledger,
		keys:   make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

func (a *Allocator) keyLock(sku string, branchID int) *sync.Mutex {
	key := sku + "|" + strconv.Itoa(branchID)

	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.keys[key]
	if !ok {
		lock = &sync.Mutex{}
		a.keys[key] = lock
	}
	return lock
}

// Allocate draws the requested quantity from available lots in FEFO order.
// Running out of stock is not an error: the returned record reports the
// unfulfilled remainder and the caller decides whether to substitute or
// backorder. Once a deduction lands it is recorded in the plan before the
// next lot is considered, so the record never understates drawn stock.
func (a *Allocator) Allocate(sku string, branchID int, requested int) (entities.DispenseRecord, error) {
	if sku == "" {
		return entities.DispenseRecord{}, fmt.Errorf("%w: empty sku", entities.ErrInvalidInput)
	}
	if branchID <= 0 {
		return entities.DispenseRecord{}, fmt.Errorf("%w: branch id %d", entities.ErrInvalidInput, branchID)
	}
	if requested <= 0 {
		return entities.DispenseRecord{}, fmt.Errorf("%w: requested %d must be positive", entities.ErrInvalidInput, requested)
	}

	lock := a.keyLock(sku, branchID)
	lock.Lock()
	defer lock.Unlock()

	record := entities.DispenseRecord{
		ID:        uuid.NewString(),
		SKU:       sku,
		BranchID:  branchID,
		Requested: requested,
		CreatedAt: a.now(),
	}

	remaining := requested
	for _, lot := range a.ledger.AvailableLots(sku, branchID) {
		if remaining <= 0 {
			break
		}

		draw := remaining
		if draw > lot.QuantityRemaining {
			draw = lot.QuantityRemaining
		}
		if draw <= 0 {
			continue
		}

		if err := a.ledger.Deduct(lot.ID, draw); err != nil {
			// A lot drained between scan and deduct means less stock than
			// the snapshot showed; retry the smaller amount, else skip.
			if errors.Is(err, entities.ErrInsufficientStock) {
				if current, ok := a.ledger.LotByID(lot.ID); ok && current.QuantityRemaining > 0 {
					draw = current.QuantityRemaining
					if err := a.ledger.Deduct(lot.ID, draw); err != nil {
						continue
					}
				} else {
					continue
				}
			} else {
				return entities.DispenseRecord{}, fmt.Errorf("deduct from lot %s: %w", lot.LotNumber, err)
			}
		}

		record.Lines = append(record.Lines, entities.DispenseLine{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  draw,
		})
		remaining -= draw
	}

	record.Unfulfilled = remaining
	a.ledger.RecordDispense(record)

	if record.Unfulfilled > 0 {
		logging.Warn("Partial fulfillment",
			"sku", sku,
			"branch_id", branchID,
			"requested", requested,
			"dispensed", record.Dispensed(),
			"unfulfilled", record.Unfulfilled)
	} else {
		logging.Info("Dispense allocated",
			"sku", sku,
			"branch_id", branchID,
			"requested", requested,
			"lots_used", len(record.Lines))
	}

	return record, nil
}
