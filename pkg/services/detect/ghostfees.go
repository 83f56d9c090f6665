package detect

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

type serviceClass struct {
	name  string
	words []string
}

// serviceClasses map known billable service classes to the wording that
// identifies the underlying operation on a statement. Ordered: the first
// matching class wins, so a description naming several services always
// resolves to the same class.
var serviceClasses = []serviceClass{
	{"virement", []string{"VIREMENT", "VIR ", "TRANSFERT"}},
	{"retrait", []string{"RETRAIT", "GAB", "DAB", "ATM"}},
	{"cheque", []string{"CHEQUE", "CHQ"}},
	{"carte", []string{"CARTE", "CB ", "PAIEMENT TPE"}},
	{"change", []string{"CHANGE", "DEVISE"}},
	{"caution", []string{"CAUTION", "AVAL", "GARANTIE"}},
	{"effet", []string{"EFFET", "ESCOMPTE", "TRAITE"}},
	{"versement", []string{"VERSEMENT", "DEPOT"}},
}

func serviceWords(name string) []string {
	for _, c := range serviceClasses {
		if c.name == name {
			return c.words
		}
	}
	return nil
}

// GhostFees flags charges with no corresponding identifiable service around
// them (orphan fees) or with non-standard, high-entropy wording.
type GhostFees struct{}

func (d *GhostFees) ID() string    { return "ghost_fees" }
func (d *GhostFees) Label() string { return "Frais fantomes" }

func (d *GhostFees) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly
	window := time.Duration(th.OrphanWindowDays) * 24 * time.Hour

	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 {
			continue
		}
		service := matchedService(tx.Description)
		if service == "" {
			// Fee names no known service class at all; judge it on wording.
			if entropy(tx.Description) > th.EntropyThreshold {
				anomalies = append(anomalies, d.ghostAnomaly(tx, 0.7,
					"Libelle non standard a forte entropie, sans classe de service identifiable"))
			}
			continue
		}
		if hasServiceNearby(txs, tx, service, window) {
			continue
		}
		confidence := 0.65
		if entropy(tx.Description) > th.EntropyThreshold {
			confidence = 0.85
		}
		if confidence < th.MinConfidence {
			continue
		}
		anomalies = append(anomalies, d.ghostAnomaly(tx, confidence,
			fmt.Sprintf("Frais %q sans operation %s correspondante a +/- %d jours",
				tx.Description, service, th.OrphanWindowDays)))
	}
	return anomalies, nil
}

func (d *GhostFees) ghostAnomaly(tx domain.Transaction, confidence float64, reason string) domain.Anomaly {
	amount := math.Abs(tx.Amount)
	severity := domain.SeverityMedium
	if amount >= 25_000 {
		severity = domain.SeverityHigh
	}
	a := newAnomaly(domain.AnomalyGhostFee, severity, amount)
	a.Confidence = confidence
	a.Transactions = []domain.Transaction{tx}
	a.Description = reason
	a.Recommendation = "Exiger de la banque le justificatif du service facture; a defaut, demander l'annulation."
	a.Evidence = append(a.Evidence, domain.Evidence{
		Type:        domain.EvidenceMissingJustification,
		Description: "Aucune operation correspondante identifiee sur la periode",
		Value:       amount,
		Source:      tx.ID,
	})
	return a
}

func matchedService(description string) string {
	upper := strings.ToUpper(description)
	if !strings.Contains(upper, "FRAIS") && !strings.Contains(upper, "COMMISSION") {
		return ""
	}
	for _, c := range serviceClasses {
		for _, w := range c.words {
			if strings.Contains(upper, w) {
				return c.name
			}
		}
	}
	return ""
}

func hasServiceNearby(txs []domain.Transaction, fee domain.Transaction, service string, window time.Duration) bool {
	for _, other := range txs {
		if other.ID == fee.ID || other.Type == domain.TransactionFee {
			continue
		}
		gap := other.Date.Sub(fee.Date)
		if gap < -window || gap > window {
			continue
		}
		upper := strings.ToUpper(other.Description)
		for _, w := range serviceWords(service) {
			if strings.Contains(upper, w) {
				return true
			}
		}
	}
	return false
}
