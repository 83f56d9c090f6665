package domain

import "time"

type FeeBasis string

const (
	FeeBasisFixed      FeeBasis = "fixed"
	FeeBasisPercentage FeeBasis = "percentage"
)

// FeeCondition is one line of a bank's contractual fee schedule.
type FeeCondition struct {
	Code   string // e.g. TENUE_COMPTE, VIREMENT_UEMOA
	Name   string
	Amount float64 // FCFA, when Basis == fixed
	Rate   float64 // fraction of the operation amount, when Basis == percentage
	Basis  FeeBasis
}

type InterestType string

const (
	InterestOverdraft             InterestType = "overdraft"
	InterestUnauthorizedOverdraft InterestType = "unauthorized_overdraft"
	InterestLatePayment           InterestType = "late"
	InterestCommitment            InterestType = "commitment"
)

type InterestMethod string

const (
	InterestSimple   InterestMethod = "simple"
	InterestCompound InterestMethod = "compound"
)

// DayCount is the day-count convention used to prorate an annual rate.
type DayCount string

const (
	DayCountAct360    DayCount = "ACT/360"
	DayCountAct365    DayCount = "ACT/365"
	DayCountThirty360 DayCount = "30/360"
)

type InterestCondition struct {
	Type       InterestType
	AnnualRate float64 // fraction, e.g. 0.12 for 12%
	Method     InterestMethod
	DayCount   DayCount
}

type GridStatus string

const (
	GridDraft    GridStatus = "draft"
	GridActive   GridStatus = "active"
	GridArchived GridStatus = "archived"
)

// ConditionGrid is a dated, versioned snapshot of a bank's full fee and
// interest schedule. Several grids per bank coexist; the tariff resolver
// decides which one applies at a given date.
type ConditionGrid struct {
	ID             string
	BankCode       string
	Name           string
	Version        string
	EffectiveDate  time.Time
	ExpirationDate *time.Time
	Status         GridStatus
	Fees           []FeeCondition
	Interests      []InterestCondition
}

// Fee looks up a fee condition by code.
func (g ConditionGrid) Fee(code string) (FeeCondition, bool) {
	for _, f := range g.Fees {
		if f.Code == code {
			return f, true
		}
	}
	return FeeCondition{}, false
}

// Interest looks up an interest condition by type.
func (g ConditionGrid) Interest(t InterestType) (InterestCondition, bool) {
	for _, i := range g.Interests {
		if i.Type == t {
			return i, true
		}
	}
	return InterestCondition{}, false
}

// BankConditions is the snapshot of one bank's tariff data handed to an
// analysis run. Current is the mandatory fallback when no versioned grid
// resolves for a date.
type BankConditions struct {
	BankCode string
	Name     string
	Current  ConditionGrid
	Grids    []ConditionGrid
}
