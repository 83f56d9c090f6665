package detect

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// DuplicateFees finds the same charge billed more than once within a
// sliding time window.
type DuplicateFees struct{}

func (d *DuplicateFees) ID() string    { return "duplicates" }
func (d *DuplicateFees) Label() string { return "Frais factures en double" }

func (d *DuplicateFees) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	charges := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsCharge() {
			charges = append(charges, tx)
		}
	}
	// Deterministic emission order regardless of input order.
	sort.Slice(charges, func(i, j int) bool {
		if !charges[i].Date.Equal(charges[j].Date) {
			return charges[i].Date.Before(charges[j].Date)
		}
		return charges[i].ID < charges[j].ID
	})

	window := float64(th.DuplicateWindowDays) * 24
	used := make([]bool, len(charges))
	var anomalies []domain.Anomaly

	for i := range charges {
		if used[i] {
			continue
		}
		cluster := []domain.Transaction{charges[i]}
		for j := i + 1; j < len(charges); j++ {
			if used[j] {
				continue
			}
			if charges[j].Date.Sub(charges[i].Date).Hours() > window {
				break
			}
			if !amountsMatch(charges[i].Amount, charges[j].Amount, th.AmountTolerance) {
				continue
			}
			if similarity(charges[i].Description, charges[j].Description) < th.SimilarityThreshold {
				continue
			}
			cluster = append(cluster, charges[j])
			used[j] = true
		}
		if len(cluster) < 2 {
			continue
		}
		used[i] = true
		anomalies = append(anomalies, d.clusterAnomaly(cluster, th))
	}
	return anomalies, nil
}

func (d *DuplicateFees) clusterAnomaly(cluster []domain.Transaction, th domain.DetectionThresholds) domain.Anomaly {
	// Recoverable amount: every occurrence beyond the first.
	recoverable := 0.0
	for _, tx := range cluster[1:] {
		recoverable += math.Abs(tx.Amount)
	}

	severity := domain.SeverityMedium
	if len(cluster) > 2 || recoverable >= 10_000 {
		severity = domain.SeverityHigh
	}
	if recoverable >= 100_000 {
		severity = domain.SeverityCritical
	}

	a := newAnomaly(domain.AnomalyDuplicateFee, severity, recoverable)
	a.Confidence = 0.9
	a.Transactions = cluster
	a.Description = fmt.Sprintf(
		"%q facture %d fois entre le %s et le %s",
		cluster[0].Description, len(cluster),
		cluster[0].Date.Format("02/01/2006"),
		cluster[len(cluster)-1].Date.Format("02/01/2006"),
	)
	a.Recommendation = "Demander le remboursement des occurrences excedentaires aupres de la banque."
	for _, tx := range cluster[1:] {
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceDuplicate,
			Description: fmt.Sprintf("Occurrence du %s, montant %.0f FCFA", tx.Date.Format("02/01/2006"), math.Abs(tx.Amount)),
			Value:       math.Abs(tx.Amount),
			Source:      tx.ID,
		})
	}
	return a
}

func amountsMatch(a, b, tolerance float64) bool {
	aa, ab := math.Abs(a), math.Abs(b)
	ref := math.Max(aa, ab)
	if ref == 0 {
		return true
	}
	return math.Abs(aa-ab)/ref <= tolerance
}
