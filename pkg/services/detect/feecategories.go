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

// billingPeriods give the contractual billing frequency per fee code: a
// code billed more often than its period within a month is over-billed.
var billingPeriods = map[string]struct {
	label     string
	perPeriod time.Duration
}{
	tariff.FeeAccountKeeping: {"tenue de compte", 28 * 24 * time.Hour},
	tariff.FeePackage:        {"package mensuel", 28 * 24 * time.Hour},
	tariff.FeeCardAnnual:     {"cotisation carte", 360 * 24 * time.Hour},
	tariff.FeeSMSAlert:       {"alerte SMS", 28 * 24 * time.Hour},
}

// FeeCategories audits each fee category against its contractual billing
// frequency and audits percentage-based transfer commissions against the
// matched operation amount.
type FeeCategories struct{}

func (d *FeeCategories) ID() string    { return "fee_categories" }
func (d *FeeCategories) Label() string { return "Audit par categorie de frais" }

func (d *FeeCategories) Detect(
	_ context.Context,
	txs []domain.Transaction,
	bank domain.BankConditions,
	th domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	var anomalies []domain.Anomaly
	anomalies = append(anomalies, d.auditFrequency(txs)...)
	anomalies = append(anomalies, d.auditPercentageCommissions(txs, bank, th)...)
	return anomalies, nil
}

// auditFrequency flags recurring fees billed more often than their period.
func (d *FeeCategories) auditFrequency(txs []domain.Transaction) []domain.Anomaly {
	byCode := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 {
			continue
		}
		if code := feeCodeFor(tx.Description); code != "" {
			if _, recurring := billingPeriods[code]; recurring {
				byCode[code] = append(byCode[code], tx)
			}
		}
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var anomalies []domain.Anomaly
	for _, code := range codes {
		lines := byCode[code]
		sort.Slice(lines, func(i, j int) bool { return lines[i].Date.Before(lines[j].Date) })
		period := billingPeriods[code]
		var extra []domain.Transaction
		last := lines[0]
		for _, tx := range lines[1:] {
			if tx.Date.Sub(last.Date) < period.perPeriod {
				extra = append(extra, tx)
				continue
			}
			last = tx
		}
		if len(extra) == 0 {
			continue
		}
		recoverable := 0.0
		for _, tx := range extra {
			recoverable += math.Abs(tx.Amount)
		}
		a := newAnomaly(domain.AnomalyCategoryOverbilling, domain.SeverityHigh, recoverable)
		a.Confidence = 0.85
		a.Transactions = append([]domain.Transaction{lines[0]}, extra...)
		a.Description = fmt.Sprintf("%s facturee %d fois de plus que la periodicite contractuelle", period.label, len(extra))
		a.Recommendation = "Demander le remboursement des facturations hors periodicite."
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceDuplicate,
			Description: fmt.Sprintf("%d facturations excedentaires de %s", len(extra), period.label),
			Value:       recoverable,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies
}

// auditPercentageCommissions pairs a percentage-based commission with the
// operation billed the same day and recomputes the cap from the rate.
func (d *FeeCategories) auditPercentageCommissions(
	txs []domain.Transaction,
	bank domain.BankConditions,
	th domain.DetectionThresholds,
) []domain.Anomaly {
	var anomalies []domain.Anomaly
	for _, fee := range txs {
		if fee.Type != domain.TransactionFee || fee.Amount >= 0 {
			continue
		}
		code := feeCodeFor(fee.Description)
		if code == "" {
			continue
		}
		grid := tariff.ResolveOrCurrent(bank, fee.Date)
		cond, ok := grid.Fee(code)
		if !ok || cond.Basis != domain.FeeBasisPercentage || cond.Rate <= 0 {
			continue
		}
		base, found := matchedOperation(txs, fee)
		if !found {
			continue
		}
		charged := math.Abs(fee.Amount)
		expected := math.Abs(base.Amount) * cond.Rate
		if expected <= 0 || charged <= expected*(1+th.OverchargeTolerance) {
			continue
		}
		over := charged - expected
		severity := domain.SeverityMedium
		if over >= 10_000 {
			severity = domain.SeverityHigh
		}
		a := newAnomaly(domain.AnomalyTariffViolation, severity, over)
		a.Confidence = 0.8
		a.Transactions = []domain.Transaction{fee, base}
		a.Description = fmt.Sprintf("Commission de %.0f FCFA sur une operation de %.0f FCFA, taux contractuel %.2f%% (%.0f FCFA attendus)",
			charged, math.Abs(base.Amount), cond.Rate*100, expected)
		a.Recommendation = "Reclamer l'application du taux contractuel sur l'operation de reference."
		exp, app := expected, charged
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceComparison,
			Description:   fmt.Sprintf("Taux %s: %.2f%%", cond.Code, cond.Rate*100),
			Value:         over,
			ExpectedValue: &exp,
			AppliedValue:  &app,
			Source:        grid.ID,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies
}

// matchedOperation finds the non-fee transaction the commission refers to:
// same reference when present, else a same-day operation of the matching
// service class.
func matchedOperation(txs []domain.Transaction, fee domain.Transaction) (domain.Transaction, bool) {
	if fee.Reference != "" {
		for _, tx := range txs {
			if tx.ID != fee.ID && tx.Type != domain.TransactionFee && tx.Reference == fee.Reference {
				return tx, true
			}
		}
	}
	service := matchedService(fee.Description)
	if service == "" {
		return domain.Transaction{}, false
	}
	for _, tx := range txs {
		if tx.ID == fee.ID || tx.Type == domain.TransactionFee {
			continue
		}
		if !sameDay(tx.Date, fee.Date) {
			continue
		}
		upper := strings.ToUpper(tx.Description)
		for _, w := range serviceWords(service) {
			if strings.Contains(upper, w) {
				return tx, true
			}
		}
	}
	return domain.Transaction{}, false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
