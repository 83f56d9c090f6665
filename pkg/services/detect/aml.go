package detect

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// AML applies the LCB-FT checks relevant to a statement audit: cash
// movements above the declaration threshold, structuring (several
// just-under-threshold cash movements in a short window) and rapid
// same-amount succession.
type AML struct{}

func (d *AML) ID() string    { return "aml" }
func (d *AML) Label() string { return "LCB-FT / anti-blanchiment" }

func (d *AML) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly

	cash := cashMovements(txs)
	sort.Slice(cash, func(i, j int) bool { return cash[i].Date.Before(cash[j].Date) })

	for _, tx := range cash {
		if math.Abs(tx.Amount) < th.AMLCashThreshold {
			continue
		}
		a := newAnomaly(domain.AnomalyAMLCashThreshold, domain.SeverityCritical, 0)
		a.Confidence = 0.95
		a.Transactions = []domain.Transaction{tx}
		a.Description = fmt.Sprintf("Mouvement especes de %.0f FCFA au-dessus du seuil de declaration de %.0f FCFA",
			math.Abs(tx.Amount), th.AMLCashThreshold)
		a.Recommendation = "Verifier l'existence de la declaration de soupcon ou du justificatif d'origine des fonds."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceReason,
			Description:   "Seuil LCB-FT CEMAC/UEMOA depasse",
			Value:         math.Abs(tx.Amount),
			Source:        tx.ID,
			RegulatoryRef: "Reglement CEMAC 01/16 / Loi uniforme UEMOA LCB-FT",
		})
		anomalies = append(anomalies, a)
	}

	anomalies = append(anomalies, d.detectStructuring(cash, th)...)
	anomalies = append(anomalies, d.detectRapidSuccession(txs)...)
	return anomalies, nil
}

func (d *AML) detectStructuring(cash []domain.Transaction, th domain.DetectionThresholds) []domain.Anomaly {
	window := time.Duration(th.AMLStructuringWindowDays) * 24 * time.Hour
	lower := th.AMLCashThreshold * 0.6
	var anomalies []domain.Anomaly
	used := make([]bool, len(cash))

	for i := range cash {
		if used[i] {
			continue
		}
		amt := math.Abs(cash[i].Amount)
		if amt < lower || amt >= th.AMLCashThreshold {
			continue
		}
		cluster := []domain.Transaction{cash[i]}
		total := amt
		for j := i + 1; j < len(cash); j++ {
			if used[j] || cash[j].Date.Sub(cash[i].Date) > window {
				continue
			}
			amtJ := math.Abs(cash[j].Amount)
			if amtJ < lower || amtJ >= th.AMLCashThreshold {
				continue
			}
			cluster = append(cluster, cash[j])
			total += amtJ
			used[j] = true
		}
		if len(cluster) < 3 || total < th.AMLCashThreshold {
			continue
		}
		used[i] = true
		a := newAnomaly(domain.AnomalyAMLStructuring, domain.SeverityCritical, 0)
		a.Confidence = 0.8
		a.Transactions = cluster
		a.Description = fmt.Sprintf("%d mouvements especes sous le seuil totalisant %.0f FCFA en %d jours",
			len(cluster), total, th.AMLStructuringWindowDays)
		a.Recommendation = "Signaler le schema de fractionnement presume au responsable conformite."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceReason,
			Description: "Fractionnement presume pour eviter le seuil de declaration",
			Value:       total,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies
}

func (d *AML) detectRapidSuccession(txs []domain.Transaction) []domain.Anomaly {
	byAmount := make(map[float64][]domain.Transaction)
	for _, tx := range txs {
		if tx.Type == domain.TransactionTransfer || tx.Type == domain.TransactionWithdrawal {
			byAmount[math.Abs(tx.Amount)] = append(byAmount[math.Abs(tx.Amount)], tx)
		}
	}
	var anomalies []domain.Anomaly
	for amount, group := range byAmount {
		if len(group) < 3 || amount < 100_000 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
		if group[len(group)-1].Date.Sub(group[0].Date) > 48*time.Hour {
			continue
		}
		a := newAnomaly(domain.AnomalyAMLRapidSuccession, domain.SeverityHigh, 0)
		a.Confidence = 0.7
		a.Transactions = group
		a.Description = fmt.Sprintf("%d operations de %.0f FCFA en moins de 48h", len(group), amount)
		a.Recommendation = "Verifier la justification economique de la repetition d'operations identiques."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceReason,
			Description: "Repetition rapide du meme montant",
			Value:       amount,
		})
		anomalies = append(anomalies, a)
	}
	sort.Slice(anomalies, func(i, j int) bool {
		return anomalies[i].Transactions[0].ID < anomalies[j].Transactions[0].ID
	})
	return anomalies
}

func cashMovements(txs []domain.Transaction) []domain.Transaction {
	var cash []domain.Transaction
	for _, tx := range txs {
		upper := strings.ToUpper(tx.Description)
		if tx.Type == domain.TransactionWithdrawal || tx.Type == domain.TransactionDeposit ||
			strings.Contains(upper, "ESPECES") || strings.Contains(upper, "VERSEMENT") || strings.Contains(upper, "RETRAIT") {
			cash = append(cash, tx)
		}
	}
	return cash
}
