package tariff

import (
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// Resolve selects the condition grid applicable at the given date: among
// non-draft grids whose effective window contains the date, the one with the
// latest effective date wins. Returns nil when no grid qualifies.
func Resolve(bank domain.BankConditions, date time.Time) *domain.ConditionGrid {
	var best *domain.ConditionGrid
	for i := range bank.Grids {
		g := &bank.Grids[i]
		if g.Status == domain.GridDraft {
			continue
		}
		if g.EffectiveDate.After(date) {
			continue
		}
		if g.ExpirationDate != nil && !g.ExpirationDate.After(date) {
			continue
		}
		if best == nil || g.EffectiveDate.After(best.EffectiveDate) {
			best = g
		}
	}
	if best == nil {
		return nil
	}
	grid := *best
	return &grid
}

// ResolveOrCurrent applies the mandatory fallback chain: resolved versioned
// grid, then the bank's current conditions, then the built-in default
// schedule. Detectors always get a usable grid.
func ResolveOrCurrent(bank domain.BankConditions, date time.Time) domain.ConditionGrid {
	if g := Resolve(bank, date); g != nil {
		return *g
	}
	if len(bank.Current.Fees) > 0 || len(bank.Current.Interests) > 0 {
		return bank.Current
	}
	return DefaultGrid(bank.BankCode)
}
