// Package entities defines the core domain types for the inventory API:
// catalog items and branches, stock lots, dispense records and advisory outputs.
package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Branch represents a single pharmacy location. Reference data, immutable.
type Branch struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Manager string `json:"manager,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Item represents a medication catalog entry. Reference data, immutable.
type Item struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	NameNormalized string          `json:"-"` // Pre-computed: lowercased, accents stripped
	GenericName    string          `json:"genericName,omitempty"`
	Category       string          `json:"category"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	ReorderPoint   int             `json:"reorderPoint"`
	Manufacturer   string          `json:"manufacturer,omitempty"`
}

// Lot is a discrete dated batch of one item held at one branch.
// QuantityRemaining only decreases after receipt; it never goes below zero
// and never exceeds QuantityReceived.
type Lot struct {
	ID                string          `json:"id"`
	LotNumber         string          `json:"lotNumber"`
	SKU               string          `json:"sku"`
	BranchID          int             `json:"branchId"`
	QuantityReceived  int             `json:"quantityReceived"`
	QuantityRemaining int             `json:"quantityRemaining"`
	ExpiryDate        time.Time       `json:"expiryDate"`
	ReceiptDate       time.Time       `json:"receiptDate"`
	UnitCost          decimal.Decimal `json:"unitCost"`
}

// Retired reports whether the lot is excluded from allocation: either drained
// or past its expiry date. Retired lots stay in the ledger for audit.
func (l Lot) Retired(now time.Time) bool {
	return l.QuantityRemaining <= 0 || !l.ExpiryDate.After(now)
}

// DaysUntilExpiry returns whole days from now until the lot expires.
// Negative for lots already expired.
func (l Lot) DaysUntilExpiry(now time.Time) int {
	return int(l.ExpiryDate.Sub(now).Hours() / 24)
}

// DispenseRequest asks for a quantity of one item at one branch.
type DispenseRequest struct {
	SKU       string    `json:"sku"`
	BranchID  int       `json:"branchId"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// DispenseLine records a draw of Quantity units from a single lot.
type DispenseLine struct {
	LotID     string `json:"lotId"`
	LotNumber string `json:"lotNumber"`
	Quantity  int    `json:"quantity"`
}

// DispenseRecord is the immutable outcome of one allocation. Lines are in the
// order the lots were drawn. Unfulfilled is zero when the request was fully
// satisfied; a positive value reports partial fulfillment, not an error.
type DispenseRecord struct {
	ID          string         `json:"id"`
	SKU         string         `json:"sku"`
	BranchID    int            `json:"branchId"`
	Requested   int            `json:"requested"`
	Unfulfilled int            `json:"unfulfilled"`
	Lines       []DispenseLine `json:"lines"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Dispensed returns the total quantity drawn across all lines.
func (r DispenseRecord) Dispensed() int {
	total := 0
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}

// Rationale tags why a transfer was suggested.
type Rationale string

const (
	RationaleExpiryRisk      Rationale = "expiry_risk"
	RationaleDemandImbalance Rationale = "demand_imbalance"
)

// TransferSuggestion recommends moving stock between branches. Advisory only:
// applying it is an external workflow that goes back through the ledger.
type TransferSuggestion struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	ItemName       string    `json:"itemName"`
	FromBranchID   int       `json:"fromBranchId"`
	FromBranchName string    `json:"fromBranchName"`
	ToBranchID     int       `json:"toBranchId"`
	ToBranchName   string    `json:"toBranchName"`
	Quantity       int       `json:"quantity"`
	Rationale      Rationale `json:"rationale"`
	SourceExcess   int       `json:"sourceExcess"`
	DestDeficit    int       `json:"destDeficit"`
	NearestExpiry  time.Time `json:"nearestExpiry"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AlertPriority grades how urgent an expiry alert is.
type AlertPriority string

const (
	PriorityExpired  AlertPriority = "EXPIRED"
	PriorityCritical AlertPriority = "CRITICAL"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityLow      AlertPriority = "LOW"
)

// ExpiryAlert flags a lot approaching or past its expiry date.
type ExpiryAlert struct {
	SKU               string        `json:"sku"`
	ItemName          string        `json:"itemName"`
	BranchID          int           `json:"branchId"`
	BranchName        string        `json:"branchName"`
	LotNumber         string        `json:"lotNumber"`
	Quantity          int           `json:"quantity"`
	ExpiryDate        time.Time     `json:"expiryDate"`
	DaysLeft          int           `json:"daysLeft"`
	Priority          AlertPriority `json:"priority"`
	SuggestedDiscount float64       `json:"suggestedDiscount"`
}

// BranchSummary aggregates one item's stock position at one branch.
type BranchSummary struct {
	SKU          string          `json:"sku"`
	ItemName     string          `json:"itemName"`
	Category     string          `json:"category"`
	Stock        int             `json:"stock"`
	ReorderPoint int             `json:"reorderPoint"`
	LowStock     bool            `json:"lowStock"`
	NextExpiry   *time.Time      `json:"nextExpiry,omitempty"`
	Valuation    decimal.Decimal `json:"valuation"`
}
