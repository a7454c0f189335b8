package data

import (
	"sync"
	"testing"
	"time"

	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

func TestNewBoard(t *testing.T) {
	logging.InitLogger("")

	b := NewBoard()

	if b == nil {
		t.Fatal("NewBoard returned nil")
	}
	if len(b.Suggestions()) != 0 {
		t.Error("NewBoard should have empty suggestions")
	}
	if len(b.Alerts()) != 0 {
		t.Error("NewBoard should have empty alerts")
	}
	if !b.LastRun().IsZero() {
		t.Error("NewBoard should have zero lastRun time")
	}
}

func TestPublish(t *testing.T) {
	logging.InitLogger("")

	b := NewBoard()

	suggestions := []entities.TransferSuggestion{
		{ID: "s-1", SKU: "AMX-500", FromBranchID: 1, ToBranchID: 2, Quantity: 30},
	}
	alerts := []entities.ExpiryAlert{
		{SKU: "AMX-500", LotNumber: "L-001", Priority: entities.PriorityCritical},
	}

	before := time.Now()
	b.Publish(suggestions, alerts)

	got := b.Suggestions()
	if len(got) != 1 || got[0].ID != "s-1" {
		t.Errorf("Published suggestions not served: %+v", got)
	}
	if len(b.Alerts()) != 1 {
		t.Errorf("Published alerts not served: %d", len(b.Alerts()))
	}
	if b.LastRun().Before(before) {
		t.Error("LastRun should advance on publish")
	}
}

func TestPublish_NilSlices(t *testing.T) {
	logging.InitLogger("")

	b := NewBoard()
	b.Publish(nil, nil)

	if b.Suggestions() == nil {
		t.Error("Publish(nil) must still serve an empty slice")
	}
	if b.Alerts() == nil {
		t.Error("Publish(nil) must still serve an empty slice")
	}
	if b.LastRun().IsZero() {
		t.Error("An empty publish still counts as a run")
	}
}

func TestBeginEndRun(t *testing.T) {
	b := NewBoard()

	if !b.BeginRun() {
		t.Fatal("First BeginRun should succeed")
	}
	if b.BeginRun() {
		t.Error("Second BeginRun should fail while the first is in progress")
	}

	b.EndRun()
	if !b.BeginRun() {
		t.Error("BeginRun should succeed again after EndRun")
	}
	b.EndRun()
}

func TestConcurrentReadsDuringPublish(t *testing.T) {
	logging.InitLogger("")

	b := NewBoard()
	b.Publish([]entities.TransferSuggestion{{ID: "s-1"}}, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					if b.Suggestions() == nil || b.Alerts() == nil {
						t.Error("Readers must never observe nil mid-publish")
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		b.Publish([]entities.TransferSuggestion{{ID: "s-1"}}, []entities.ExpiryAlert{{SKU: "AMX-500"}})
	}
	close(stop)
	wg.Wait()
}
