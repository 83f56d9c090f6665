package ai

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// moduleTiers is the static complexity classification: cheap pattern lookups
// go to the fast tier, cross-transaction reasoning to premium.
var moduleTiers = map[string]Tier{
	"duplicates":     TierFast,
	"ghost_fees":     TierStandard,
	"overcharges":    TierStandard,
	"interest":       TierPremium,
	"value_dates":    TierFast,
	"compliance":     TierPremium,
	"aml":            TierPremium,
	"fraud_patterns": TierPremium,
}

// tierPricePerMTokens is the USD price per million tokens billed per tier.
var tierPricePerMTokens = map[Tier]float64{
	TierFast:     0.3,
	TierStandard: 2.5,
	TierPremium:  10.0,
}

// tokensPerTransaction is the rough prompt+completion token footprint of one
// statement line in a detection batch.
const tokensPerTransaction = 60

// Router assigns detection modules to providers by tier. Switching a
// provider or a tier never changes a module's input/output contract.
type Router struct {
	providers map[Tier]Provider
}

// NewRouter wires one provider per tier. A missing tier falls back to the
// next cheaper configured one.
func NewRouter(fast, standard, premium Provider) (*Router, error) {
	if fast == nil && standard == nil && premium == nil {
		return nil, fmt.Errorf("at least one provider must be configured")
	}
	if fast == nil {
		fast = firstNonNil(standard, premium)
	}
	if standard == nil {
		standard = firstNonNil(fast, premium)
	}
	if premium == nil {
		premium = firstNonNil(standard, fast)
	}
	return &Router{providers: map[Tier]Provider{
		TierFast:     fast,
		TierStandard: standard,
		TierPremium:  premium,
	}}, nil
}

func firstNonNil(providers ...Provider) Provider {
	for _, p := range providers {
		if p != nil {
			return p
		}
	}
	return nil
}

// SupportedModules lists the detection modules the router can serve, sorted.
func (r *Router) SupportedModules() []string {
	modules := maps.Keys(moduleTiers)
	sort.Strings(modules)
	return modules
}

// TierFor returns the tier a module is classified into.
func (r *Router) TierFor(moduleID string) Tier {
	if tier, ok := moduleTiers[moduleID]; ok {
		return tier
	}
	return TierStandard
}

// ProviderFor returns the provider serving a module's tier.
func (r *Router) ProviderFor(moduleID string) Provider {
	return r.providers[r.TierFor(moduleID)]
}

// CostEstimate is the projected USD cost of a full analysis.
type CostEstimate struct {
	TotalUSD  float64
	ByModule  map[string]float64
	TotalToks int
}

// EstimateCost projects the USD cost of running the given modules over a
// statement of txCount transactions.
func (r *Router) EstimateCost(modules []string, txCount int) CostEstimate {
	if len(modules) == 0 {
		modules = r.SupportedModules()
	}
	est := CostEstimate{ByModule: make(map[string]float64, len(modules))}
	for _, m := range modules {
		tokens := txCount * tokensPerTransaction
		cost := float64(tokens) / 1_000_000 * tierPricePerMTokens[r.TierFor(m)]
		est.ByModule[m] = cost
		est.TotalUSD += cost
		est.TotalToks += tokens
	}
	return est
}
