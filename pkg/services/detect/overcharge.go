package detect

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
)

// feeCodePatterns map statement wording to the contractual fee codes of the
// resolved grid. Ordered: the first matching code wins, so a description
// matching patterns of two codes always resolves to the same one.
var feeCodePatterns = []struct {
	code     string
	patterns []string
}{
	{tariff.FeeAccountKeeping, []string{"TENUE DE COMPTE", "TENUE CPTE", "TENUE COMPTE"}},
	{tariff.FeeTransferLocal, []string{"FRAIS VIREMENT LOCAL", "COMMISSION VIREMENT LOCAL"}},
	{tariff.FeeTransferRegional, []string{"FRAIS VIREMENT UEMOA", "FRAIS VIREMENT CEMAC", "COMMISSION TRANSFERT"}},
	{tariff.FeeCardAnnual, []string{"COTISATION CARTE", "FRAIS CARTE"}},
	{tariff.FeeCheckbook, []string{"CHEQUIER", "CARNET DE CHEQUES"}},
	{tariff.FeeStatement, []string{"RELEVE DE COMPTE", "EDITION RELEVE"}},
	{tariff.FeeSMSAlert, []string{"ALERTE SMS", "SMS BANKING"}},
	{tariff.FeePackage, []string{"PACKAGE", "FORFAIT MENSUEL"}},
	{tariff.FeeClosure, []string{"CLOTURE DE COMPTE", "CLOTURE CPTE"}},
	{tariff.FeeCashWithdrawal, []string{"FRAIS RETRAIT", "COMMISSION RETRAIT"}},
}

// Overcharges compares billed fees against the contractual schedule
// resolved for the transaction date.
type Overcharges struct{}

func (d *Overcharges) ID() string    { return "overcharges" }
func (d *Overcharges) Label() string { return "Frais surfactures" }

func (d *Overcharges) Detect(
	_ context.Context,
	txs []domain.Transaction,
	bank domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly
	baselines := historicalMedians(txs)

	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 {
			continue
		}
		code := feeCodeFor(tx.Description)
		if code == "" {
			continue
		}
		grid := tariff.ResolveOrCurrent(bank, tx.Date)
		charged := math.Abs(tx.Amount)

		expected, source, ok := contractualAmount(grid, code, charged)
		if !ok && th.UseHistoricalBaseline {
			if median, has := baselines[code]; has {
				expected, source, ok = median, "mediane historique du client", true
			}
		}
		if !ok || expected <= 0 {
			continue
		}
		if charged <= expected*(1+th.OverchargeTolerance) {
			continue
		}

		over := charged - expected
		severity := domain.SeverityMedium
		switch {
		case over >= 50_000:
			severity = domain.SeverityCritical
		case over >= 10_000 || charged > expected*2:
			severity = domain.SeverityHigh
		}

		a := newAnomaly(domain.AnomalyOvercharge, severity, over)
		a.Confidence = 0.85
		a.Transactions = []domain.Transaction{tx}
		a.Description = fmt.Sprintf("%q facture %.0f FCFA pour un tarif contractuel de %.0f FCFA (%s)",
			tx.Description, charged, expected, grid.Name)
		a.Recommendation = "Reclamer la difference sur la base de la grille tarifaire applicable."
		exp, app := expected, charged
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceComparison,
			Description:   fmt.Sprintf("Tarif de reference: %s", source),
			Value:         over,
			ExpectedValue: &exp,
			AppliedValue:  &app,
			Source:        grid.ID,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func contractualAmount(grid domain.ConditionGrid, code string, charged float64) (float64, string, bool) {
	fee, ok := grid.Fee(code)
	if !ok {
		return 0, "", false
	}
	switch fee.Basis {
	case domain.FeeBasisFixed:
		return fee.Amount, fmt.Sprintf("grille %s v%s", grid.Name, grid.Version), true
	case domain.FeeBasisPercentage:
		// Without the operation base amount the cap cannot be recomputed from
		// the fee line alone; percentage fees are audited by the category
		// detector against the matched operation.
		_ = charged
		return 0, "", false
	}
	return 0, "", false
}

func feeCodeFor(description string) string {
	upper := strings.ToUpper(description)
	for _, entry := range feeCodePatterns {
		for _, p := range entry.patterns {
			if strings.Contains(upper, p) {
				return entry.code
			}
		}
	}
	return ""
}

// historicalMedians computes the client's own median charge per fee code
// across the statement, used as baseline when no explicit tariff exists.
func historicalMedians(txs []domain.Transaction) map[string]float64 {
	grouped := make(map[string][]float64)
	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 {
			continue
		}
		if code := feeCodeFor(tx.Description); code != "" {
			grouped[code] = append(grouped[code], math.Abs(tx.Amount))
		}
	}
	medians := make(map[string]float64, len(grouped))
	for code, amounts := range grouped {
		if len(amounts) < 3 {
			continue // too few samples to call it a baseline
		}
		sort.Float64s(amounts)
		medians[code] = amounts[len(amounts)/2]
	}
	return medians
}
