// Package forecast supplies demand estimates to the redistribution advisor.
// The advisor treats any DemandForecaster as an opaque predictor; this
// package ships a seasonal baseline model seeded from the catalog file.
// Swapping in a statistical model is a matter of implementing the interface.
package forecast

import (
	"strconv"
	"sync"
	"time"

	"github.com/codice/inventory-api/interfaces"
)

// Compile-time check to ensure Seasonal implements DemandForecaster
var _ interfaces.DemandForecaster = (*Seasonal)(nil)

// seasonalFactors scales the base daily rate by calendar month. Winter
// months run hot for pharmacy demand, late spring and summer run cold.
var seasonalFactors = map[time.Month]float64{
	time.January:   1.3,
	time.February:  1.2,
	time.March:     1.0,
	time.April:     0.9,
	time.May:       0.8,
	time.June:      0.9,
	time.July:      0.8,
	time.August:    0.8,
	time.September: 0.9,
	time.October:   1.1,
	time.November:  1.3,
	time.December:  1.4,
}

// Seasonal estimates demand as base daily rate x seasonal factor x window
// days. Items or branches without a configured rate have no estimate, which
// the advisor treats as zero demand.
type Seasonal struct {
	mu    sync.RWMutex
	rates map[string]float64 // "sku|branchID" -> units per day
	now   func() time.Time
}

// NewSeasonal creates a forecaster with no configured rates.
func NewSeasonal() *Seasonal {
	return &Seasonal{
		rates: make(map[string]float64),
		now:   time.Now,
	}
}

func rateKey(sku string, branchID int) string {
	return sku + "|" + strconv.Itoa(branchID)
}

// SetRate configures the base daily demand for one item at one branch.
func (s *Seasonal) SetRate(sku string, branchID int, unitsPerDay float64) {
	s.mu.Lock()
	s.rates[rateKey(sku, branchID)] = unitsPerDay
	s.mu.Unlock()
}

// ClearRates drops every configured rate, typically before a reseed.
func (s *Seasonal) ClearRates() {
	s.mu.Lock()
	s.rates = make(map[string]float64)
	s.mu.Unlock()
}

// DemandEstimate returns expected demand over the window. The second return
// is false when no rate is configured for the item/branch pair.
func (s *Seasonal) DemandEstimate(sku string, branchID int, window time.Duration) (float64, bool) {
	s.mu.RLock()
	rate, ok := s.rates[rateKey(sku, branchID)]
	s.mu.RUnlock()

	if !ok {
		return 0, false
	}

	factor := seasonalFactors[s.now().Month()]
	if factor == 0 {
		factor = 1.0
	}

	days := window.Hours() / 24
	return rate * factor * days, true
}

// Static is a fixed-answer forecaster for tests and for deployments that
// feed estimates from an external system verbatim.
type Static struct {
	mu        sync.RWMutex
	estimates map[string]float64
}

// Compile-time check to ensure Static implements DemandForecaster
var _ interfaces.DemandForecaster = (*Static)(nil)

// NewStatic creates an empty static forecaster.
func NewStatic() *Static {
	return &Static{estimates: make(map[string]float64)}
}

// Set fixes the estimate returned for an item/branch pair, ignoring the
// window entirely.
func (s *Static) Set(sku string, branchID int, estimate float64) {
	s.mu.Lock()
	s.estimates[rateKey(sku, branchID)] = estimate
	s.mu.Unlock()
}

// DemandEstimate returns the fixed estimate if one was set.
func (s *Static) DemandEstimate(sku string, branchID int, _ time.Duration) (float64, bool) {
	s.mu.RLock()
	estimate, ok := s.estimates[rateKey(sku, branchID)]
	s.mu.RUnlock()
	return estimate, ok
}
