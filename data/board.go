// Package data provides thread-safe storage for the latest advisor output.
// The Board keeps whole snapshots behind atomic pointers so a scheduled
// advisor run replaces suggestions and alerts with zero downtime for the
// HTTP layer serving them.
package data

import (
	"sync/atomic"
	"time"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

// Compile-time check to ensure Board implements SuggestionBoard
var _ interfaces.SuggestionBoard = (*Board)(nil)

// Board holds the published advisor output with atomic pointers
type Board struct {
	suggestions atomic.Value // []entities.TransferSuggestion
	alerts      atomic.Value // []entities.ExpiryAlert
	lastRun     atomic.Value // time.Time
	running     atomic.Bool
}

// NewBoard creates a new Board with empty data
func NewBoard() *Board {
	b := &Board{}
	b.suggestions.Store(make([]entities.TransferSuggestion, 0))
	b.alerts.Store(make([]entities.ExpiryAlert, 0))
	b.lastRun.Store(time.Time{})
	return b
}

// Thread-safe getters with type check

// Suggestions returns the latest published transfer suggestions
func (b *Board) Suggestions() []entities.TransferSuggestion {
	if v := b.suggestions.Load(); v != nil {
		if suggestions, ok := v.([]entities.TransferSuggestion); ok {
			return suggestions
		}
	}

	logging.Warn("Suggestion list is empty or invalid")
	return []entities.TransferSuggestion{}
}

// Alerts returns the latest published expiry alerts
func (b *Board) Alerts() []entities.ExpiryAlert {
	if v := b.alerts.Load(); v != nil {
		if alerts, ok := v.([]entities.ExpiryAlert); ok {
			return alerts
		}
	}

	logging.Warn("Alert list is empty or invalid")
	return []entities.ExpiryAlert{}
}

// LastRun returns the timestamp of the last published advisor run
func (b *Board) LastRun() time.Time {
	if v := b.lastRun.Load(); v != nil {
		if lastRun, ok := v.(time.Time); ok {
			return lastRun
		}
	}

	logging.Warn("Could not get the last run value")
	return time.Time{}
}

// Publish atomically replaces the published advisor output
func (b *Board) Publish(suggestions []entities.TransferSuggestion, alerts []entities.ExpiryAlert) {
	if suggestions == nil {
		suggestions = make([]entities.TransferSuggestion, 0)
	}
	if alerts == nil {
		alerts = make([]entities.ExpiryAlert, 0)
	}

	// Atomic swap (zero downtime replacement)
	b.suggestions.Store(suggestions)
	b.alerts.Store(alerts)
	b.lastRun.Store(time.Now())
}

// BeginRun marks the start of an advisor run.
// Returns true if the run can proceed, false if another is in progress
func (b *Board) BeginRun() bool {
	return b.running.CompareAndSwap(false, true)
}

// EndRun marks the end of an advisor run
func (b *Board) EndRun() {
	b.running.Store(false)
}
