package detect

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
)

// regulatedFreeServices are services banks of the zone must provide free of
// charge under the BCEAO/COBAC free-services lists.
var regulatedFreeServices = []string{
	"CLOTURE DE COMPTE",
	"CLOTURE CPTE",
	"RETRAIT ESPECES AU GUICHET",
	"DEPOT ESPECES",
	"VERSEMENT ESPECES",
	"CHANGEMENT D ADRESSE",
	"ATTESTATION DE NON ENGAGEMENT",
}

// Compliance audits charges against OHADA/COBAC documentation rules: every
// billed fee must exist on the applicable grid, and regulated-free services
// must not be billed at all.
type Compliance struct{}

func (d *Compliance) ID() string    { return "compliance" }
func (d *Compliance) Label() string { return "Conformite OHADA/COBAC" }

func (d *Compliance) Detect(
	_ context.Context,
	txs []domain.Transaction,
	bank domain.BankConditions,
	_ domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly
	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 {
			continue
		}
		amount := math.Abs(tx.Amount)
		upper := strings.ToUpper(tx.Description)

		if svc := matchedFreeService(upper); svc != "" {
			a := newAnomaly(domain.AnomalyRegulatedFreeFee, domain.SeverityHigh, amount)
			a.Confidence = 0.9
			a.Transactions = []domain.Transaction{tx}
			a.Description = fmt.Sprintf("Facturation de %.0f FCFA pour %q, service gratuit reglemente", amount, svc)
			a.Recommendation = "Demander le remboursement integral: le service figure sur la liste des services gratuits."
			a.Evidence = append(a.Evidence, domain.Evidence{
				Type:          domain.EvidenceReason,
				Description:   "Service present sur la liste des services bancaires gratuits",
				Value:         amount,
				Source:        tx.ID,
				RegulatoryRef: "Liste BCEAO/COBAC des services bancaires offerts a titre gratuit",
			})
			anomalies = append(anomalies, a)
			continue
		}

		grid := tariff.ResolveOrCurrent(bank, tx.Date)
		if code := feeCodeFor(tx.Description); code != "" {
			if _, ok := grid.Fee(code); ok {
				continue
			}
		} else {
			continue
		}
		a := newAnomaly(domain.AnomalyUndocumentedFee, domain.SeverityMedium, amount)
		a.Confidence = 0.7
		a.Transactions = []domain.Transaction{tx}
		a.Description = fmt.Sprintf("Frais %q absent de la grille tarifaire %s v%s", tx.Description, grid.Name, grid.Version)
		a.Recommendation = "Exiger la ligne tarifaire contractuelle correspondante ou l'annulation du frais."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceMissingJustification,
			Description:   "Aucune condition tarifaire publiee ne couvre ce frais",
			Value:         amount,
			Source:        grid.ID,
			RegulatoryRef: "Obligation de publication des conditions de banque (COBAC)",
		})
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func matchedFreeService(upperDescription string) string {
	for _, svc := range regulatedFreeServices {
		if strings.Contains(upperDescription, svc) {
			return svc
		}
	}
	return ""
}
