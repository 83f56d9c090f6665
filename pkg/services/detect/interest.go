package detect

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
)

// InterestAudit recomputes debtor interest (agios) from the statement's
// balance history using the contractual rate, method and day-count
// convention, and flags charges above the recomputed amount.
type InterestAudit struct{}

func (d *InterestAudit) ID() string    { return "interest" }
func (d *InterestAudit) Label() string { return "Agios et interets debiteurs" }

func (d *InterestAudit) Detect(
	_ context.Context,
	txs []domain.Transaction,
	bank domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var anomalies []domain.Anomaly
	periodStart := time.Time{}
	if len(sorted) > 0 {
		periodStart = sorted[0].Date
	}

	for _, tx := range sorted {
		if !isInterestCharge(tx) {
			continue
		}
		grid := tariff.ResolveOrCurrent(bank, tx.Date)
		cond, ok := grid.Interest(domain.InterestOverdraft)
		if !ok {
			continue
		}

		charged := math.Abs(tx.Amount)
		expected := recomputeInterest(sorted, periodStart, tx.Date, cond)
		if expected <= 0 {
			// No overdraft at all over the period: the whole charge is due back.
			anomalies = append(anomalies, d.interestAnomaly(tx, charged, 0, charged, cond, grid,
				domain.AnomalyUnjustifiedAgios,
				fmt.Sprintf("Agios de %.0f FCFA factures sans periode debitrice sur le releve", charged)))
			periodStart = tx.Date
			continue
		}
		if charged > expected*(1+th.OverchargeTolerance) {
			over := charged - expected
			anomalies = append(anomalies, d.interestAnomaly(tx, charged, expected, over, cond, grid,
				domain.AnomalyExcessiveInterest,
				fmt.Sprintf("Agios factures %.0f FCFA contre %.0f FCFA recalcules au taux contractuel de %.2f%% (%s)",
					charged, expected, cond.AnnualRate*100, cond.DayCount)))
		}
		// Interest is billed per arrete de compte; the next charge covers the
		// next period.
		periodStart = tx.Date
	}
	return anomalies, nil
}

func (d *InterestAudit) interestAnomaly(
	tx domain.Transaction,
	charged, expected, over float64,
	cond domain.InterestCondition,
	grid domain.ConditionGrid,
	typ domain.AnomalyType,
	description string,
) domain.Anomaly {
	severity := domain.SeverityHigh
	if over >= 50_000 {
		severity = domain.SeverityCritical
	}
	a := newAnomaly(typ, severity, over)
	a.Confidence = 0.8
	a.Transactions = []domain.Transaction{tx}
	a.Description = description
	a.Recommendation = "Demander le detail de l'arrete de compte et le remboursement du trop-percu d'agios."
	exp, app := expected, charged
	a.Evidence = append(a.Evidence, domain.Evidence{
		Type:          domain.EvidenceOfficialRate,
		Description:   fmt.Sprintf("Taux contractuel %s %.2f%% (%s, %s)", cond.Type, cond.AnnualRate*100, cond.Method, cond.DayCount),
		Value:         over,
		ExpectedValue: &exp,
		AppliedValue:  &app,
		Source:        grid.ID,
		RegulatoryRef: "Reglement COBAC R-2020/04, conditions de banque",
	})
	return a
}

func isInterestCharge(tx domain.Transaction) bool {
	if tx.Amount >= 0 {
		return false
	}
	if tx.Type == domain.TransactionInterest {
		return true
	}
	upper := strings.ToUpper(tx.Description)
	return strings.Contains(upper, "AGIOS") || strings.Contains(upper, "INTERETS DEBITEURS")
}

// recomputeInterest walks the balance history between start and end and
// accrues interest on every overdrawn segment.
func recomputeInterest(sorted []domain.Transaction, start, end time.Time, cond domain.InterestCondition) float64 {
	base := dayCountBase(cond.DayCount)
	total := 0.0

	for i, tx := range sorted {
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		if tx.Balance >= 0 {
			continue
		}
		segmentEnd := end
		if i+1 < len(sorted) && sorted[i+1].Date.Before(end) {
			segmentEnd = sorted[i+1].Date
		}
		days := segmentDays(tx.Date, segmentEnd, cond.DayCount)
		if days <= 0 {
			continue
		}
		principal := -tx.Balance
		switch cond.Method {
		case domain.InterestCompound:
			total += principal * (math.Pow(1+cond.AnnualRate/base, float64(days)) - 1)
		default:
			total += principal * cond.AnnualRate * float64(days) / base
		}
	}
	return total
}

func dayCountBase(dc domain.DayCount) float64 {
	if dc == domain.DayCountAct365 {
		return 365
	}
	return 360
}

func segmentDays(from, to time.Time, dc domain.DayCount) int {
	if dc == domain.DayCountThirty360 {
		return days360(from, to)
	}
	return int(to.Sub(from).Hours() / 24)
}

// days360 implements the 30/360 European day count.
func days360(from, to time.Time) int {
	d1, d2 := from.Day(), to.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 {
		d2 = 30
	}
	return (to.Year()-from.Year())*360 + (int(to.Month())-int(from.Month()))*30 + (d2 - d1)
}
