// Package catalog provides thread-safe storage for item and branch reference
// data. The Container keeps whole snapshots behind atomic pointers so a
// catalog reload swaps everything at once with zero downtime for readers.
package catalog

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
)

// Compile-time check to ensure Container implements CatalogStore
var _ interfaces.CatalogStore = (*Container)(nil)

// Container holds catalog data with atomic pointers for zero-downtime updates
type Container struct {
	items        atomic.Value // []entities.Item
	branches     atomic.Value // []entities.Branch
	itemsBySKU   atomic.Value // map[string]entities.Item
	branchesByID atomic.Value // map[int]entities.Branch
	lastUpdated  atomic.Value // time.Time
	updating     atomic.Bool
}

// NewContainer creates a new Container with empty data
func NewContainer() *Container {
	c := &Container{}
	c.items.Store(make([]entities.Item, 0))
	c.branches.Store(make([]entities.Branch, 0))
	c.itemsBySKU.Store(make(map[string]entities.Item))
	c.branchesByID.Store(make(map[int]entities.Branch))
	c.lastUpdated.Store(time.Time{})
	return c
}

// Thread-safe getters with type check

// Items returns the item catalog
func (c *Container) Items() []entities.Item {
	if v := c.items.Load(); v != nil {
		if items, ok := v.([]entities.Item); ok {
			return items
		}
	}

	logging.Warn("Item catalog is empty or invalid")
	return []entities.Item{}
}

// Branches returns the branch list
func (c *Container) Branches() []entities.Branch {
	if v := c.branches.Load(); v != nil {
		if branches, ok := v.([]entities.Branch); ok {
			return branches
		}
	}

	logging.Warn("Branch list is empty or invalid")
	return []entities.Branch{}
}

// ItemBySKU looks up one item by its SKU
func (c *Container) ItemBySKU(sku string) (entities.Item, bool) {
	if v := c.itemsBySKU.Load(); v != nil {
		if itemsBySKU, ok := v.(map[string]entities.Item); ok {
			item, found := itemsBySKU[sku]
			return item, found
		}
	}

	logging.Warn("Item map is empty or invalid")
	return entities.Item{}, false
}

// BranchByID looks up one branch by its ID
func (c *Container) BranchByID(id int) (entities.Branch, bool) {
	if v := c.branchesByID.Load(); v != nil {
		if branchesByID, ok := v.(map[int]entities.Branch); ok {
			branch, found := branchesByID[id]
			return branch, found
		}
	}

	logging.Warn("Branch map is empty or invalid")
	return entities.Branch{}, false
}

// SearchItems matches items whose name, generic name or category contains
// the term, comparing case- and accent-insensitively.
func (c *Container) SearchItems(term string) []entities.Item {
	needle := Normalize(term)
	if needle == "" {
		return []entities.Item{}
	}

	matches := make([]entities.Item, 0)
	for _, item := range c.Items() {
		if strings.Contains(item.NameNormalized, needle) ||
			strings.Contains(Normalize(item.GenericName), needle) ||
			strings.Contains(Normalize(item.Category), needle) {
			matches = append(matches, item)
		}
	}
	return matches
}

// LastUpdated returns the timestamp of the last catalog load
func (c *Container) LastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog reload is currently in progress
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// UpdateData atomically replaces the catalog snapshot
func (c *Container) UpdateData(items []entities.Item, branches []entities.Branch,
	itemsBySKU map[string]entities.Item, branchesByID map[int]entities.Branch) {

	// Atomic swap (zero downtime replacement)
	c.items.Store(items)
	c.branches.Store(branches)
	c.itemsBySKU.Store(itemsBySKU)
	c.branchesByID.Store(branchesByID)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog reload.
// Returns true if the reload can proceed, false if another is in progress
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog reload
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}
