// Package interfaces defines core abstractions for the inventory API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/codice/inventory-api/inventory/entities"
)

// CatalogStore is the read-only reference data surface: items and branches.
// Implementations provide thread-safe snapshot access with atomic swaps so
// a reload never disturbs in-flight readers.
type CatalogStore interface {
	Items() []entities.Item
	Branches() []entities.Branch
	ItemBySKU(sku string) (entities.Item, bool)
	BranchByID(id int) (entities.Branch, bool)
	SearchItems(term string) []entities.Item
	LastUpdated() time.Time
	IsUpdating() bool
}

// LotLedger is the single owner of lot state. All stock mutation flows
// through Receive (intake), Deduct (allocation) and Adjust (correction).
type LotLedger interface {
	Receive(sku string, branchID int, lotNumber string, quantity int,
		expiry time.Time, unitCost decimal.Decimal) (entities.Lot, error)

	// AvailableLots returns non-retired lots for the item/branch pair in
	// FEFO order: expiry ascending, then receipt date, then lot number.
	AvailableLots(sku string, branchID int) []entities.Lot

	Deduct(lotID string, quantity int) error
	Adjust(lotID string, quantityRemaining int) error
	LotByID(lotID string) (entities.Lot, bool)

	// BranchStock maps branch ID to total remaining units of the item.
	BranchStock(sku string) map[int]int
	ExpiringLots(branchID int, window time.Duration) []entities.Lot
	BranchLots(branchID int) []entities.Lot

	RecordDispense(rec entities.DispenseRecord)
	Dispenses(branchID int, limit int) []entities.DispenseRecord
	TotalLots() int
}

// Dispenser allocates stock for dispense requests under FEFO.
type Dispenser interface {
	Allocate(sku string, branchID int, requested int) (entities.DispenseRecord, error)
}

// Advisor proposes inter-branch transfers and expiry alerts. Pure reads:
// an advisor never mutates the ledger.
type Advisor interface {
	Suggest(sku string) ([]entities.TransferSuggestion, error)
	SuggestAll() []entities.TransferSuggestion
	ExpiryAlerts(branchID int) []entities.ExpiryAlert
}

// DemandForecaster supplies demand estimates for the advisor. The second
// return value reports whether an estimate exists; callers fall back to
// zero (which suppresses redistribution for that item/branch) when false.
type DemandForecaster interface {
	DemandEstimate(sku string, branchID int, window time.Duration) (float64, bool)
}

// SuggestionBoard holds the latest published advisor output for the HTTP
// layer to serve. Publishing swaps the whole snapshot atomically.
type SuggestionBoard interface {
	Suggestions() []entities.TransferSuggestion
	Alerts() []entities.ExpiryAlert
	LastRun() time.Time
	Publish(suggestions []entities.TransferSuggestion, alerts []entities.ExpiryAlert)
	BeginRun() bool
	EndRun()
}

// Scheduler drives periodic advisor runs and catalog reloads.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// InputValidator checks user-supplied path and body values before they
// reach the domain layer.
type InputValidator interface {
	ValidateInput(input string) error
	ValidateSKU(input string) (string, error)
	ValidateBranchID(input string) (int, error)
	ValidateQuantity(quantity int) error
}
