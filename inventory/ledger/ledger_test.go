package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	logging.InitLogger("")
	return NewWithClock(func() time.Time { return testNow })
}

func mustReceive(t *testing.T, l *Ledger, sku string, branchID int, lotNumber string, qty int, expiry time.Time) entities.Lot {
	t.Helper()
	lot, err := l.Receive(sku, branchID, lotNumber, qty, expiry, decimal.NewFromFloat(2.50))
	if err != nil {
		t.Fatalf("Receive(%s) failed: %v", lotNumber, err)
	}
	return lot
}

func TestReceive(t *testing.T) {
	l := newTestLedger()

	expiry := testNow.AddDate(0, 6, 0)
	lot, err := l.Receive("AMX-500", 1, "L-2025-001", 100, expiry, decimal.NewFromFloat(1.20))
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if lot.ID == "" {
		t.Error("Expected a generated lot ID")
	}
	if lot.QuantityRemaining != 100 {
		t.Errorf("Expected remaining 100, got %d", lot.QuantityRemaining)
	}
	if lot.QuantityRemaining != lot.QuantityReceived {
		t.Error("A new lot should have remaining equal to received")
	}
	if !lot.ReceiptDate.Equal(testNow) {
		t.Errorf("Expected receipt date %v, got %v", testNow, lot.ReceiptDate)
	}
	if l.TotalLots() != 1 {
		t.Errorf("Expected 1 lot, got %d", l.TotalLots())
	}
}

func TestReceive_Invalid(t *testing.T) {
	l := newTestLedger()

	future := testNow.AddDate(0, 6, 0)
	testCases := []struct {
		name      string
		sku       string
		branchID  int
		lotNumber string
		quantity  int
		expiry    time.Time
		unitCost  decimal.Decimal
	}{
		{"empty sku", "", 1, "L-001", 10, future, decimal.Zero},
		{"zero branch", "AMX-500", 0, "L-001", 10, future, decimal.Zero},
		{"negative branch", "AMX-500", -3, "L-001", 10, future, decimal.Zero},
		{"empty lot number", "AMX-500", 1, "", 10, future, decimal.Zero},
		{"zero quantity", "AMX-500", 1, "L-001", 0, future, decimal.Zero},
		{"negative quantity", "AMX-500", 1, "L-001", -5, future, decimal.Zero},
		{"expiry in the past", "AMX-500", 1, "L-001", 10, testNow.AddDate(0, -1, 0), decimal.Zero},
		{"expiry exactly now", "AMX-500", 1, "L-001", 10, testNow, decimal.Zero},
		{"negative cost", "AMX-500", 1, "L-001", 10, future, decimal.NewFromFloat(-0.5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Receive(tc.sku, tc.branchID, tc.lotNumber, tc.quantity, tc.expiry, tc.unitCost)
			if !errors.Is(err, entities.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if l.TotalLots() != 0 {
		t.Errorf("Rejected receipts must not create lots, found %d", l.TotalLots())
	}
}

func TestAvailableLots_FEFOOrder(t *testing.T) {
	l := newTestLedger()

	// Received out of expiry order on purpose
	mustReceive(t, l, "AMX-500", 1, "L-MAR", 10, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	mustReceive(t, l, "AMX-500", 1, "L-JAN", 5, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	mustReceive(t, l, "AMX-500", 1, "L-FEB", 8, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	lots := l.AvailableLots("AMX-500", 1)
	if len(lots) != 3 {
		t.Fatalf("Expected 3 lots, got %d", len(lots))
	}

	expected := []string{"L-JAN", "L-FEB", "L-MAR"}
	for i, want := range expected {
		if lots[i].LotNumber != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, lots[i].LotNumber)
		}
	}
}

func TestAvailableLots_TieBreakByLotNumber(t *testing.T) {
	l := newTestLedger()

	sameExpiry := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mustReceive(t, l, "AMX-500", 1, "L-B", 10, sameExpiry)
	mustReceive(t, l, "AMX-500", 1, "L-A", 10, sameExpiry)

	// Same expiry and same receipt clock; lot number decides
	lots := l.AvailableLots("AMX-500", 1)
	if lots[0].LotNumber != "L-A" || lots[1].LotNumber != "L-B" {
		t.Errorf("Expected L-A before L-B, got %s, %s", lots[0].LotNumber, lots[1].LotNumber)
	}
}

func TestAvailableLots_Deterministic(t *testing.T) {
	l := newTestLedger()

	mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))
	mustReceive(t, l, "AMX-500", 1, "L-002", 20, testNow.AddDate(0, 2, 0))

	first := l.AvailableLots("AMX-500", 1)
	second := l.AvailableLots("AMX-500", 1)

	if len(first) != len(second) {
		t.Fatal("Repeated queries returned different lengths")
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].QuantityRemaining != second[i].QuantityRemaining {
			t.Errorf("Position %d differs between identical queries", i)
		}
	}
}

func TestAvailableLots_ExcludesRetired(t *testing.T) {
	l := newTestLedger()

	// An expired lot still holding stock must not be allocatable. Receive it
	// through a ledger whose clock predates the expiry, then query later.
	earlier := NewWithClock(func() time.Time { return testNow.AddDate(-1, 0, 0) })
	expired := mustReceive(t, earlier, "AMX-500", 1, "L-OLD", 50, testNow.AddDate(0, 0, -10))

	live := mustReceive(t, l, "AMX-500", 1, "L-NEW", 5, testNow.AddDate(0, 3, 0))

	// Move the expired lot into the current ledger's indexes
	l.mu.Lock()
	stored := earlier.byID[expired.ID]
	l.byKey[lotKey("AMX-500", 1)] = append(l.byKey[lotKey("AMX-500", 1)], stored)
	l.byID[expired.ID] = stored
	l.mu.Unlock()

	lots := l.AvailableLots("AMX-500", 1)
	if len(lots) != 1 || lots[0].ID != live.ID {
		t.Fatalf("Expected only the live lot, got %d lots", len(lots))
	}

	// Drained lots disappear too
	if err := l.Deduct(live.ID, 5); err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}
	if remaining := l.AvailableLots("AMX-500", 1); len(remaining) != 0 {
		t.Errorf("Expected no available lots after draining, got %d", len(remaining))
	}
}

func TestAvailableLots_ScopedToBranch(t *testing.T) {
	l := newTestLedger()

	mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))
	mustReceive(t, l, "AMX-500", 2, "L-002", 20, testNow.AddDate(0, 1, 0))
	mustReceive(t, l, "IBU-400", 1, "L-003", 30, testNow.AddDate(0, 1, 0))

	lots := l.AvailableLots("AMX-500", 1)
	if len(lots) != 1 || lots[0].LotNumber != "L-001" {
		t.Errorf("Expected exactly L-001 for AMX-500 at branch 1, got %d lots", len(lots))
	}
}

func TestDeduct(t *testing.T) {
	l := newTestLedger()
	lot := mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))

	if err := l.Deduct(lot.ID, 4); err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}

	current, ok := l.LotByID(lot.ID)
	if !ok {
		t.Fatal("Lot disappeared after deduct")
	}
	if current.QuantityRemaining != 6 {
		t.Errorf("Expected remaining 6, got %d", current.QuantityRemaining)
	}
}

func TestDeduct_Errors(t *testing.T) {
	l := newTestLedger()
	lot := mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))

	if err := l.Deduct("no-such-lot", 1); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown lot, got %v", err)
	}

	if err := l.Deduct(lot.ID, 11); !errors.Is(err, entities.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}

	if err := l.Deduct(lot.ID, 0); !errors.Is(err, entities.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero quantity, got %v", err)
	}

	// Failed deducts must not touch the lot
	current, _ := l.LotByID(lot.ID)
	if current.QuantityRemaining != 10 {
		t.Errorf("Failed deducts changed remaining to %d", current.QuantityRemaining)
	}
}

func TestAdjust(t *testing.T) {
	l := newTestLedger()
	lot := mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))

	if err := l.Adjust(lot.ID, 3); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	current, _ := l.LotByID(lot.ID)
	if current.QuantityRemaining != 3 {
		t.Errorf("Expected remaining 3, got %d", current.QuantityRemaining)
	}

	// Corrections are bounded by [0, received]
	if err := l.Adjust(lot.ID, 11); !errors.Is(err, entities.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput above received, got %v", err)
	}
	if err := l.Adjust(lot.ID, -1); !errors.Is(err, entities.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput below zero, got %v", err)
	}
	if err := l.Adjust("no-such-lot", 1); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Adjusting to zero retires the lot from allocation
	if err := l.Adjust(lot.ID, 0); err != nil {
		t.Fatalf("Adjust to zero failed: %v", err)
	}
	if lots := l.AvailableLots("AMX-500", 1); len(lots) != 0 {
		t.Errorf("Zeroed lot should not be available, got %d lots", len(lots))
	}
}

func TestBranchStock(t *testing.T) {
	l := newTestLedger()

	mustReceive(t, l, "AMX-500", 1, "L-001", 10, testNow.AddDate(0, 1, 0))
	mustReceive(t, l, "AMX-500", 1, "L-002", 5, testNow.AddDate(0, 2, 0))
	mustReceive(t, l, "AMX-500", 2, "L-003", 7, testNow.AddDate(0, 1, 0))
	mustReceive(t, l, "IBU-400", 1, "L-004", 99, testNow.AddDate(0, 1, 0))

	stock := l.BranchStock("AMX-500")
	if stock[1] != 15 {
		t.Errorf("Expected 15 at branch 1, got %d", stock[1])
	}
	if stock[2] != 7 {
		t.Errorf("Expected 7 at branch 2, got %d", stock[2])
	}
	if len(stock) != 2 {
		t.Errorf("Expected stock at 2 branches, got %d", len(stock))
	}
}

func TestExpiringLots(t *testing.T) {
	l := newTestLedger()

	mustReceive(t, l, "AMX-500", 1, "L-SOON", 10, testNow.AddDate(0, 0, 5))
	mustReceive(t, l, "AMX-500", 2, "L-LATER", 10, testNow.AddDate(0, 0, 20))
	mustReceive(t, l, "IBU-400", 1, "L-FAR", 10, testNow.AddDate(1, 0, 0))

	expiring := l.ExpiringLots(0, 30*24*time.Hour)
	if len(expiring) != 2 {
		t.Fatalf("Expected 2 expiring lots, got %d", len(expiring))
	}
	if expiring[0].LotNumber != "L-SOON" {
		t.Errorf("Expected soonest lot first, got %s", expiring[0].LotNumber)
	}

	branchOnly := l.ExpiringLots(2, 30*24*time.Hour)
	if len(branchOnly) != 1 || branchOnly[0].LotNumber != "L-LATER" {
		t.Errorf("Branch filter failed, got %d lots", len(branchOnly))
	}
}

func TestDispenseAudit(t *testing.T) {
	l := newTestLedger()

	for i := 0; i < 3; i++ {
		l.RecordDispense(entities.DispenseRecord{
			ID:       "rec-" + string(rune('a'+i)),
			SKU:      "AMX-500",
			BranchID: 1 + i%2,
		})
	}

	all := l.Dispenses(0, 10)
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}
	// Newest first
	if all[0].ID != "rec-c" {
		t.Errorf("Expected newest record first, got %s", all[0].ID)
	}

	branch2 := l.Dispenses(2, 10)
	if len(branch2) != 1 || branch2[0].ID != "rec-b" {
		t.Errorf("Branch filter failed, got %d records", len(branch2))
	}

	limited := l.Dispenses(0, 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(limited))
	}
}
