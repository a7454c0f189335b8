// Package advisor scans stock levels and demand estimates across branches
// and proposes inter-branch transfers that reduce expected waste. The
// advisor only reads: applying a transfer is an external workflow that
// calls back into the ledger as a deduction plus a receipt.
package advisor

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
)

// Compile-time check to ensure Engine implements Advisor
var _ interfaces.Advisor = (*Engine)(nil)

// Engine computes transfer suggestions and expiry alerts from a snapshot of
// the ledger plus an opaque demand forecaster.
type Engine struct {
	ledger     interfaces.LotLedger
	catalog    interfaces.CatalogStore
	forecaster interfaces.DemandForecaster

	// Lookahead is the demand window used to size excess and deficit.
	lookahead time.Duration
	// ExpiryRiskWindow marks a source lot as expiry-driven when its expiry
	// falls inside this window.
	expiryRiskWindow time.Duration

	now func() time.Time
}

// New creates an advisor engine. Lookahead and expiryRiskWindow come from
// configuration; both are expressed in days there.
func New(ledger interfaces.LotLedger, catalog interfaces.CatalogStore,
	forecaster interfaces.DemandForecaster, lookahead, expiryRiskWindow time.Duration) *Engine {
	return &Engine{
		ledger:           ledger,
		catalog:          catalog,
		forecaster:       forecaster,
		lookahead:        lookahead,
		expiryRiskWindow: expiryRiskWindow,
		now:              time.Now,
	}
}

type branchPosition struct {
	branch        entities.Branch
	stock         int
	excess        int
	deficit       int
	nearestExpiry time.Time
	nearestQty    int
}

// Suggest proposes transfers for one item. Branches whose stock exceeds the
// demand estimate over the lookahead window are excess sources, ranked by
// nearest-expiring lot (highest risk first); branches below it are deficits,
// ranked by shortfall. Sources and deficits are paired greedily; each
// suggestion moves min(excess, deficit, nearest-expiring lot's remaining).
func (e *Engine) Suggest(sku string) ([]entities.TransferSuggestion, error) {
	item, ok := e.catalog.ItemBySKU(sku)
	if !ok {
		return nil, fmt.Errorf("%w: item %s", entities.ErrNotFound, sku)
	}

	now := e.now()
	stock := e.ledger.BranchStock(sku)

	var sources, deficits []branchPosition
	for _, branch := range e.catalog.Branches() {
		estimate, known := e.forecaster.DemandEstimate(sku, branch.ID, e.lookahead)
		if !known {
			// No estimate: fall back to zero demand, which can never
			// produce a deficit, so redistribution stays silent for
			// this branch until an estimate is available.
			estimate = 0
		}
		demand := int(estimate + 0.5)

		pos := branchPosition{branch: branch, stock: stock[branch.ID]}
		switch {
		case pos.stock > demand:
			pos.excess = pos.stock - demand
		case pos.stock < demand:
			pos.deficit = demand - pos.stock
		}

		if pos.excess > 0 {
			lots := e.ledger.AvailableLots(sku, branch.ID)
			if len(lots) == 0 {
				continue
			}
			pos.nearestExpiry = lots[0].ExpiryDate
			pos.nearestQty = lots[0].QuantityRemaining
			sources = append(sources, pos)
		} else if pos.deficit > 0 {
			deficits = append(deficits, pos)
		}
	}

	if len(sources) == 0 || len(deficits) == 0 {
		return nil, nil
	}

	// Highest expiry risk ships first.
	sort.Slice(sources, func(i, j int) bool {
		if !sources[i].nearestExpiry.Equal(sources[j].nearestExpiry) {
			return sources[i].nearestExpiry.Before(sources[j].nearestExpiry)
		}
		return sources[i].branch.ID < sources[j].branch.ID
	})
	// Largest shortfall is served first.
	sort.Slice(deficits, func(i, j int) bool {
		if deficits[i].deficit != deficits[j].deficit {
			return deficits[i].deficit > deficits[j].deficit
		}
		return deficits[i].branch.ID < deficits[j].branch.ID
	})

	var suggestions []entities.TransferSuggestion
	di := 0
	for si := range sources {
		if di >= len(deficits) {
			break
		}
		src := &sources[si]
		dst := &deficits[di]

		qty := src.excess
		if dst.deficit < qty {
			qty = dst.deficit
		}
		if src.nearestQty < qty {
			qty = src.nearestQty
		}
		if qty <= 0 {
			continue
		}

		rationale := entities.RationaleDemandImbalance
		if src.nearestExpiry.Before(now.Add(e.expiryRiskWindow)) {
			rationale = entities.RationaleExpiryRisk
		}

		suggestions = append(suggestions, entities.TransferSuggestion{
			ID:             uuid.NewString(),
			SKU:            sku,
			ItemName:       item.Name,
			FromBranchID:   src.branch.ID,
			FromBranchName: src.branch.Name,
			ToBranchID:     dst.branch.ID,
			ToBranchName:   dst.branch.Name,
			Quantity:       qty,
			Rationale:      rationale,
			SourceExcess:   src.excess,
			DestDeficit:    dst.deficit,
			NearestExpiry:  src.nearestExpiry,
			CreatedAt:      now,
		})

		dst.deficit -= qty
		if dst.deficit <= 0 {
			di++
		}
	}

	return suggestions, nil
}

// SuggestAll runs Suggest over the whole catalog and concatenates the
// results. Per-item errors only happen for unknown SKUs, which cannot occur
// when iterating the catalog itself.
func (e *Engine) SuggestAll() []entities.TransferSuggestion {
	var all []entities.TransferSuggestion
	for _, item := range e.catalog.Items() {
		suggestions, err := e.Suggest(item.SKU)
		if err != nil {
			continue
		}
		all = append(all, suggestions...)
	}
	return all
}

// ExpiryAlerts reports lots holding stock that are expired or expire within
// 90 days, graded by urgency, soonest first. A branchID of 0 covers every
// branch.
func (e *Engine) ExpiryAlerts(branchID int) []entities.ExpiryAlert {
	now := e.now()

	var alerts []entities.ExpiryAlert
	for _, lot := range e.ledger.ExpiringLots(branchID, 90*24*time.Hour) {
		item, ok := e.catalog.ItemBySKU(lot.SKU)
		if !ok {
			continue
		}
		branchName := ""
		if branch, ok := e.catalog.BranchByID(lot.BranchID); ok {
			branchName = branch.Name
		}

		days := lot.DaysUntilExpiry(now)
		alerts = append(alerts, entities.ExpiryAlert{
			SKU:               lot.SKU,
			ItemName:          item.Name,
			BranchID:          lot.BranchID,
			BranchName:        branchName,
			LotNumber:         lot.LotNumber,
			Quantity:          lot.QuantityRemaining,
			ExpiryDate:        lot.ExpiryDate,
			DaysLeft:          days,
			Priority:          expiryPriority(days),
			SuggestedDiscount: suggestedDiscount(days),
		})
	}
	return alerts
}

// expiryPriority grades urgency by days until expiry.
func expiryPriority(days int) entities.AlertPriority {
	switch {
	case days <= 0:
		return entities.PriorityExpired
	case days <= 15:
		return entities.PriorityCritical
	case days <= 30:
		return entities.PriorityHigh
	case days <= 90:
		return entities.PriorityMedium
	default:
		return entities.PriorityLow
	}
}

// suggestedDiscount recommends a markdown percentage to move at-risk stock.
func suggestedDiscount(days int) float64 {
	switch {
	case days <= 0:
		return 60.0
	case days <= 7:
		return 50.0
	case days <= 15:
		return 35.0
	case days <= 30:
		return 20.0
	case days <= 90:
		return 10.0
	default:
		return 5.0
	}
}
