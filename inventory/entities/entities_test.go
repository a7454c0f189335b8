package entities

import (
	"testing"
	"time"
)

func TestLotRetired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		remaining int
		expiry    time.Time
		retired   bool
	}{
		{"live lot", 10, now.AddDate(0, 1, 0), false},
		{"drained lot", 0, now.AddDate(0, 1, 0), true},
		{"expired lot with stock", 10, now.AddDate(0, -1, 0), true},
		{"expires exactly now", 10, now, true},
		{"negative remaining", -1, now.AddDate(0, 1, 0), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lot := Lot{QuantityRemaining: tc.remaining, ExpiryDate: tc.expiry}
			if got := lot.Retired(now); got != tc.retired {
				t.Errorf("Retired: expected %v, got %v", tc.retired, got)
			}
		})
	}
}

func TestLotDaysUntilExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	lot := Lot{ExpiryDate: now.AddDate(0, 0, 10)}
	if days := lot.DaysUntilExpiry(now); days != 10 {
		t.Errorf("Expected 10 days, got %d", days)
	}

	expired := Lot{ExpiryDate: now.AddDate(0, 0, -5)}
	if days := expired.DaysUntilExpiry(now); days != -5 {
		t.Errorf("Expected -5 days, got %d", days)
	}
}

func TestDispenseRecordDispensed(t *testing.T) {
	record := DispenseRecord{
		Requested:   20,
		Unfulfilled: 5,
		Lines: []DispenseLine{
			{LotNumber: "L-001", Quantity: 5},
			{LotNumber: "L-002", Quantity: 10},
		},
	}

	if record.Dispensed() != 15 {
		t.Errorf("Expected 15 dispensed, got %d", record.Dispensed())
	}
	if record.Dispensed()+record.Unfulfilled != record.Requested {
		t.Error("Dispensed plus unfulfilled must equal requested")
	}

	empty := DispenseRecord{Requested: 10, Unfulfilled: 10}
	if empty.Dispensed() != 0 {
		t.Errorf("Expected 0 for a record with no lines, got %d", empty.Dispensed())
	}
}
