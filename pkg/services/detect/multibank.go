package detect

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// MultiBank compares the same fee code across the client's banks within the
// statement period and flags material price disparities.
type MultiBank struct{}

func (d *MultiBank) ID() string    { return "multibank" }
func (d *MultiBank) Label() string { return "Disparites inter-banques" }

func (d *MultiBank) Detect(
	_ context.Context,
	txs []domain.Transaction,
	_ domain.BankConditions,
	_ domain.DetectionThresholds,
) ([]domain.Anomaly, error) {
	// code -> bank -> charged amounts
	perBank := make(map[string]map[string][]float64)
	samples := make(map[string]map[string]domain.Transaction)
	for _, tx := range txs {
		if tx.Type != domain.TransactionFee || tx.Amount >= 0 || tx.BankCode == "" {
			continue
		}
		code := feeCodeFor(tx.Description)
		if code == "" {
			continue
		}
		if perBank[code] == nil {
			perBank[code] = make(map[string][]float64)
			samples[code] = make(map[string]domain.Transaction)
		}
		perBank[code][tx.BankCode] = append(perBank[code][tx.BankCode], math.Abs(tx.Amount))
		samples[code][tx.BankCode] = tx
	}

	codes := make([]string, 0, len(perBank))
	for code := range perBank {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var anomalies []domain.Anomaly
	for _, code := range codes {
		banks := perBank[code]
		if len(banks) < 2 {
			continue
		}
		type bankAvg struct {
			bank string
			avg  float64
		}
		avgs := make([]bankAvg, 0, len(banks))
		for bank, amounts := range banks {
			sum := 0.0
			for _, v := range amounts {
				sum += v
			}
			avgs = append(avgs, bankAvg{bank: bank, avg: sum / float64(len(amounts))})
		}
		sort.Slice(avgs, func(i, j int) bool { return avgs[i].avg < avgs[j].avg })
		cheapest, dearest := avgs[0], avgs[len(avgs)-1]
		if cheapest.avg <= 0 || dearest.avg < cheapest.avg*1.5 {
			continue
		}

		over := dearest.avg - cheapest.avg
		a := newAnomaly(domain.AnomalyMultiBankDisparity, domain.SeverityMedium, over)
		a.Confidence = 0.65
		a.Transactions = []domain.Transaction{samples[code][dearest.bank], samples[code][cheapest.bank]}
		a.Description = fmt.Sprintf("%s facture en moyenne %.0f FCFA chez %s contre %.0f FCFA chez %s",
			code, dearest.avg, dearest.bank, cheapest.avg, cheapest.bank)
		a.Recommendation = "Renegocier la condition tarifaire avec la banque la plus chere sur la base du comparatif."
		exp, app := cheapest.avg, dearest.avg
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:          domain.EvidenceComparison,
			Description:   fmt.Sprintf("Comparatif inter-banques pour %s", code),
			Value:         over,
			ExpectedValue: &exp,
			AppliedValue:  &app,
		})
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}
