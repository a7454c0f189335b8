package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

// DemandRate seeds the forecaster with a base daily demand for one item at
// one branch.
type DemandRate struct {
	SKU       string  `json:"sku"`
	BranchID  int     `json:"branchId"`
	DailyRate float64 `json:"dailyRate"`
}

// Seed is the on-disk catalog format.
type Seed struct {
	Branches []entities.Branch `json:"branches"`
	Items    []entities.Item   `json:"items"`
	Demand   []DemandRate      `json:"demand"`
}

// LoadSeed reads and validates a catalog seed file.
func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}

	if err := validateSeed(&seed); err != nil {
		return nil, fmt.Errorf("validate catalog seed: %w", err)
	}

	for i := range seed.Items {
		seed.Items[i].NameNormalized = Normalize(seed.Items[i].Name)
	}

	return &seed, nil
}

// validateSeed rejects seeds that would corrupt lookups: duplicate keys,
// missing names, non-positive prices.
func validateSeed(seed *Seed) error {
	if len(seed.Branches) == 0 {
		return fmt.Errorf("no branches defined")
	}
	if len(seed.Items) == 0 {
		return fmt.Errorf("no items defined")
	}

	branchIDs := make(map[int]bool, len(seed.Branches))
	for _, b := range seed.Branches {
		if b.ID <= 0 {
			return fmt.Errorf("branch %q has invalid id %d", b.Name, b.ID)
		}
		if b.Name == "" {
			return fmt.Errorf("branch %d has empty name", b.ID)
		}
		if branchIDs[b.ID] {
			return fmt.Errorf("duplicate branch id %d", b.ID)
		}
		branchIDs[b.ID] = true
	}

	skus := make(map[string]bool, len(seed.Items))
	for _, item := range seed.Items {
		if item.SKU == "" {
			return fmt.Errorf("item %q has empty sku", item.Name)
		}
		if item.Name == "" {
			return fmt.Errorf("item %s has empty name", item.SKU)
		}
		if skus[item.SKU] {
			return fmt.Errorf("duplicate sku %s", item.SKU)
		}
		if item.PurchasePrice.IsNegative() || item.SalePrice.IsNegative() {
			return fmt.Errorf("item %s has negative price", item.SKU)
		}
		if item.ReorderPoint < 0 {
			return fmt.Errorf("item %s has negative reorder point", item.SKU)
		}
		skus[item.SKU] = true
	}

	for _, d := range seed.Demand {
		if !skus[d.SKU] {
			return fmt.Errorf("demand entry references unknown sku %s", d.SKU)
		}
		if !branchIDs[d.BranchID] {
			return fmt.Errorf("demand entry for %s references unknown branch %d", d.SKU, d.BranchID)
		}
		if d.DailyRate < 0 {
			return fmt.Errorf("demand entry for %s has negative rate", d.SKU)
		}
	}

	return nil
}

// Reload loads the seed file and swaps it into the container. Concurrent
// reloads are coalesced: the losing caller returns without error.
func Reload(c *Container, path string) (*Seed, error) {
	if !c.BeginUpdate() {
		logging.Info("Catalog reload already in progress, skipping...")
		return nil, nil
	}
	defer c.EndUpdate()

	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}

	itemsBySKU := make(map[string]entities.Item, len(seed.Items))
	for _, item := range seed.Items {
		itemsBySKU[item.SKU] = item
	}
	branchesByID := make(map[int]entities.Branch, len(seed.Branches))
	for _, branch := range seed.Branches {
		branchesByID[branch.ID] = branch
	}

	c.UpdateData(seed.Items, seed.Branches, itemsBySKU, branchesByID)

	logging.Info("Catalog loaded",
		"items", len(seed.Items),
		"branches", len(seed.Branches),
		"demand_rates", len(seed.Demand))

	return seed, nil
}
