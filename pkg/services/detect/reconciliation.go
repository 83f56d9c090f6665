package detect

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// Reconciliation checks running-balance consistency: the balance after each
// transaction must equal the previous balance plus the amount. Breaks point
// at missing lines or silent adjustments.
type Reconciliation struct{}

func (d *Reconciliation) ID() string    { return "reconciliation" }
func (d *Reconciliation) Label() string { return "Rapprochement des soldes" }

func (d *Reconciliation) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	_ domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	byAccount := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		key := tx.AccountNumber
		if key == "" {
			key = tx.BankCode
		}
		byAccount[key] = append(byAccount[key], tx)
	}

	accounts := make([]string, 0, len(byAccount))
	for acc := range byAccount {
		accounts = append(accounts, acc)
	}
	sort.Strings(accounts)

	var anomalies []domain.Anomaly
	for _, acc := range accounts {
		lines := byAccount[acc]
		sort.Slice(lines, func(i, j int) bool {
			if !lines[i].Date.Equal(lines[j].Date) {
				return lines[i].Date.Before(lines[j].Date)
			}
			return lines[i].ID < lines[j].ID
		})
		for i := 1; i < len(lines); i++ {
			expected := lines[i-1].Balance + lines[i].Amount
			gap := lines[i].Balance - expected
			if math.Abs(gap) < 1 { // FCFA has no subunits in practice
				continue
			}
			a := newAnomaly(domain.AnomalyBalanceBreak, domain.SeverityHigh, math.Abs(gap))
			if gap > 0 {
				// Balance jumped in the client's favor; recoverable is zero but
				// the break still needs explaining.
				a.Type = domain.AnomalyReconciliationGap
				a.Amount = 0
				a.Severity = domain.SeverityMedium
			}
			a.Confidence = 0.85
			a.Transactions = []domain.Transaction{lines[i-1], lines[i]}
			a.Description = fmt.Sprintf("Rupture de solde de %.0f FCFA sur le compte %s au %s",
				gap, acc, lines[i].Date.Format("02/01/2006"))
			a.Recommendation = "Demander a la banque le detail des ecritures entre les deux lignes."
			exp, app := expected, lines[i].Balance
			a.Evidence = append(a.Evidence, domain.Evidence{
				Type:          domain.EvidenceComparison,
				Description:   "Solde attendu vs solde releve",
				Value:         math.Abs(gap),
				ExpectedValue: &exp,
				AppliedValue:  &app,
				Source:        lines[i].ID,
			})
			anomalies = append(anomalies, a)
		}
	}
	return anomalies, nil
}
