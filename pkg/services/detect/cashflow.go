package detect

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// CashFlow flags movements abnormal against the account's own baseline:
// amounts far above the median absolute movement.
type CashFlow struct{}

func (d *CashFlow) ID() string    { return "cashflow" }
func (d *CashFlow) Label() string { return "Mouvements atypiques" }

func (d *CashFlow) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	if len(txs) < 5 {
		return nil, nil // not enough history to establish a baseline
	}
	amounts := make([]float64, 0, len(txs))
	for _, tx := range txs {
		if tx.Amount != 0 {
			amounts = append(amounts, math.Abs(tx.Amount))
		}
	}
	if len(amounts) == 0 {
		return nil, nil
	}
	sort.Float64s(amounts)
	median := amounts[len(amounts)/2]
	if median == 0 {
		return nil, nil
	}
	limit := median * th.LargeMovementMultiplier

	var anomalies []domain.Anomaly
	for _, tx := range txs {
		abs := math.Abs(tx.Amount)
		if abs <= limit {
			continue
		}
		severity := domain.SeverityMedium
		if abs > limit*3 {
			severity = domain.SeverityHigh
		}
		a := newAnomaly(domain.AnomalyAbnormalMovement, severity, 0)
		a.Confidence = 0.6
		a.Transactions = []domain.Transaction{tx}
		a.Description = fmt.Sprintf("Mouvement de %.0f FCFA, %.0fx la mediane des mouvements du compte (%.0f FCFA)",
			abs, abs/median, median)
		a.Recommendation = "Rapprocher l'operation des pieces comptables du client."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceComparison,
			Description: fmt.Sprintf("Mediane des mouvements: %.0f FCFA, seuil: %.0f FCFA", median, limit),
			Value:       abs,
			Source:      tx.ID,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}
