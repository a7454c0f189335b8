// Package scheduler drives the periodic work of the inventory API: advisor
// runs that republish transfer suggestions and expiry alerts, the daily
// catalog reload, and staleness monitoring of the published board.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/logging"
	"github.com/codice/inventory-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler coordinates advisor runs and catalog reloads using dependency injection
type Scheduler struct {
	advisor  interfaces.Advisor
	board    interfaces.SuggestionBoard
	reload   func() error // reloads the catalog and reseeds the forecaster
	interval time.Duration

	scheduler *gocron.Scheduler
}

// New creates a scheduler instance with injected dependencies
func New(advisor interfaces.Advisor, board interfaces.SuggestionBoard,
	reload func() error, interval time.Duration) *Scheduler {
	return &Scheduler{
		advisor:   advisor,
		board:     board,
		reload:    reload,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs an initial advisor pass, then schedules recurring advisor runs,
// the daily catalog reload, and board staleness monitoring.
func (s *Scheduler) Start() error {
	// Initial publish so /suggestions has data right after boot
	s.RunAdvisor()

	_, err := s.scheduler.Every(s.interval).Do(s.RunAdvisor)
	if err != nil {
		logging.Error("Failed to schedule advisor runs", "error", err)
		return fmt.Errorf("failed to schedule advisor runs: %w", err)
	}

	// Catalog reload once a day, before the morning shift
	_, err = s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog reload", "error", err)
		return fmt.Errorf("failed to schedule catalog reload: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunAdvisor performs one full advisor scan and publishes the result.
// Overlapping runs are coalesced.
func (s *Scheduler) RunAdvisor() {
	if !s.board.BeginRun() {
		logging.Info("Advisor run already in progress, skipping...")
		return
	}
	defer s.board.EndRun()

	start := time.Now()

	suggestions := s.advisor.SuggestAll()
	alerts := s.advisor.ExpiryAlerts(0)
	s.board.Publish(suggestions, alerts)

	elapsed := time.Since(start)
	metrics.AdvisorRunDuration.Observe(elapsed.Seconds())
	metrics.SuggestionsPublished.Set(float64(len(suggestions)))

	logging.Info("Advisor run completed",
		"duration", elapsed.String(),
		"suggestions", len(suggestions),
		"alerts", len(alerts))
}

// startStalenessMonitoring warns when the published board falls behind.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for range ticker.C {
			lastRun := s.board.LastRun()
			if !lastRun.IsZero() && time.Since(lastRun) > 3*s.interval {
				logging.Warn("Suggestion board is stale",
					"last_run", lastRun.Format(time.RFC3339))
			}
		}
	}()
}
