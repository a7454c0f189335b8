// Package health provides health checking functionality for the inventory API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/codice/inventory-api/interfaces"
)

// Checker implements the interfaces.HealthChecker interface
type Checker struct {
	catalog interfaces.CatalogStore
	ledger  interfaces.LotLedger
	board   interfaces.SuggestionBoard

	// advisorInterval is the configured gap between advisor runs; the
	// checker degrades once the board is several intervals stale.
	advisorInterval time.Duration
}

// Compile-time check to ensure Checker implements HealthChecker
var _ interfaces.HealthChecker = (*Checker)(nil)

// NewChecker creates a health checker with injected dependencies
func NewChecker(catalog interfaces.CatalogStore, ledger interfaces.LotLedger,
	board interfaces.SuggestionBoard, advisorInterval time.Duration) *Checker {
	return &Checker{
		catalog:         catalog,
		ledger:          ledger,
		board:           board,
		advisorInterval: advisorInterval,
	}
}

// HealthCheck returns health data for the /health HTTP endpoint. The service
// is unhealthy without a loaded catalog and degraded when the advisor board
// has gone stale.
func (h *Checker) HealthCheck() (status string, data map[string]any, httpStatus int) {
	items := h.catalog.Items()
	branches := h.catalog.Branches()
	catalogAge := time.Since(h.catalog.LastUpdated())
	boardAge := time.Since(h.board.LastRun())

	switch {
	case len(items) == 0 || len(branches) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.board.LastRun().IsZero():
		// Advisor has not published yet; dispensing still works.
		status = "degraded"
		httpStatus = http.StatusOK

	case boardAge > 3*h.advisorInterval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"items":             len(items),
		"branches":          len(branches),
		"lots":              h.ledger.TotalLots(),
		"catalog_age_hours": math.Round(catalogAge.Hours()*10) / 10,
		"last_advisor_run":  h.board.LastRun().Format(time.RFC3339),
		"suggestions":       len(h.board.Suggestions()),
		"catalog_updating":  h.catalog.IsUpdating(),
	}

	return status, data, httpStatus
}
