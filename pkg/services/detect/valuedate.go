package detect

import (
	"context"
	"fmt"
	"math"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// ValueDates flags value-date lags beyond the regulatory maximum. Banks in
// the zone may not backdate debits nor postdate credits past J+2 ouvres.
type ValueDates struct{}

func (d *ValueDates) ID() string    { return "value_dates" }
func (d *ValueDates) Label() string { return "Dates de valeur abusives" }

func (d *ValueDates) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly
	for _, tx := range txs {
		if tx.ValueDate == nil {
			continue
		}
		lagDays := int(tx.ValueDate.Sub(tx.Date).Hours() / 24)
		abusive := false
		var direction string
		if tx.Amount > 0 && lagDays > th.ValueDateMaxLagDays {
			// Credit applied late: the client loses value days.
			abusive = true
			direction = "credit retarde"
		}
		if tx.Amount < 0 && lagDays < -th.ValueDateMaxLagDays {
			// Debit backdated: agios base inflated.
			abusive = true
			direction = "debit antidate"
			lagDays = -lagDays
		}
		if !abusive {
			continue
		}

		// Recoverable value estimated as lost value days at the standard
		// overdraft rate; kept conservative.
		lost := math.Abs(tx.Amount) * 0.12 * float64(lagDays) / 360

		a := newAnomaly(domain.AnomalyValueDateAbuse, domain.SeverityMedium, lost)
		a.Confidence = 0.75
		a.Transactions = []domain.Transaction{tx}
		a.Description = fmt.Sprintf("Date de valeur a %d jours de la date d'operation (%s), maximum reglementaire %d jours",
			lagDays, direction, th.ValueDateMaxLagDays)
		a.Recommendation = "Contester la date de valeur appliquee et demander la rectification de l'arrete de compte."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceReason,
			Description:   fmt.Sprintf("Operation du %s, valeur au %s", tx.Date.Format("02/01/2006"), tx.ValueDate.Format("02/01/2006")),
			Value:         float64(lagDays),
			Source:        tx.ID,
			RegulatoryRef: "Instruction BEAC/COBAC sur les dates de valeur",
		})
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}
