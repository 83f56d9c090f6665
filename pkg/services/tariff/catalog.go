package tariff

import (
	"fmt"
	"sync"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// Catalog is the registration boundary for condition grids. It enforces the
// business rule the query-time resolver only tie-breaks: at most one
// non-draft grid per bank covers any point in time.
type Catalog struct {
	mu    sync.RWMutex
	grids map[string][]domain.ConditionGrid // bankCode -> grids
}

func NewCatalog() *Catalog {
	return &Catalog{grids: make(map[string][]domain.ConditionGrid)}
}

// Register adds a grid. Non-draft grids whose effective window overlaps an
// existing non-draft grid of the same bank are rejected.
func (c *Catalog) Register(grid domain.ConditionGrid) error {
	if grid.BankCode == "" {
		return fmt.Errorf("grid %q has no bank code", grid.ID)
	}
	if grid.ExpirationDate != nil && !grid.ExpirationDate.After(grid.EffectiveDate) {
		return fmt.Errorf("grid %q expires before it takes effect", grid.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if grid.Status != domain.GridDraft {
		for _, existing := range c.grids[grid.BankCode] {
			if existing.Status == domain.GridDraft {
				continue
			}
			if windowsOverlap(grid, existing) {
				return fmt.Errorf("grid %q overlaps non-draft grid %q for bank %s",
					grid.ID, existing.ID, grid.BankCode)
			}
		}
	}

	c.grids[grid.BankCode] = append(c.grids[grid.BankCode], grid)
	return nil
}

// Grids returns a copy of the registered grids for a bank.
func (c *Catalog) Grids(bankCode string) []domain.ConditionGrid {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ConditionGrid, len(c.grids[bankCode]))
	copy(out, c.grids[bankCode])
	return out
}

// Conditions assembles the BankConditions snapshot handed to an analysis
// run, using the grid active today as Current when one resolves.
func (c *Catalog) Conditions(bankCode string, now time.Time) domain.BankConditions {
	bank := domain.BankConditions{
		BankCode: bankCode,
		Grids:    c.Grids(bankCode),
	}
	if g := Resolve(bank, now); g != nil {
		bank.Current = *g
	}
	return bank
}

func windowsOverlap(a, b domain.ConditionGrid) bool {
	aEnd := a.ExpirationDate
	bEnd := b.ExpirationDate
	if aEnd != nil && !aEnd.After(b.EffectiveDate) {
		return false
	}
	if bEnd != nil && !bEnd.After(a.EffectiveDate) {
		return false
	}
	return true
}
