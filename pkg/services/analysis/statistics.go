package analysis

import (
	"fmt"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

func computeStatistics(txs []domain.Transaction, anomalies []domain.Anomaly) domain.AnalysisStatistics {
	stats := domain.AnalysisStatistics{
		TotalTransactions: len(txs),
		TotalAnomalies:    len(anomalies),
		ByType:            make(map[domain.AnomalyType]int),
		BySeverity:        make(map[domain.Severity]int),
	}
	for _, a := range anomalies {
		stats.ByType[a.Type]++
		stats.BySeverity[a.Severity]++
		stats.PotentialSavings += a.Amount
	}
	if len(txs) > 0 {
		stats.AnomalyRate = float64(len(anomalies)) / float64(len(txs))
	}
	return stats
}

func buildSummary(anomalies []domain.Anomaly, stats domain.AnalysisStatistics) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{Status: domain.SummaryOK}
	if stats.BySeverity[domain.SeverityHigh] > 0 {
		summary.Status = domain.SummaryWarning
	}
	if stats.BySeverity[domain.SeverityCritical] > 0 {
		summary.Status = domain.SummaryCritical
	}

	// Key findings: the largest recoverable anomalies.
	top := make([]domain.Anomaly, len(anomalies))
	copy(top, anomalies)
	sort.Slice(top, func(i, j int) bool { return top[i].Amount > top[j].Amount })
	for i, a := range top {
		if i == 5 {
			break
		}
		summary.KeyFindings = append(summary.KeyFindings,
			fmt.Sprintf("[%s] %s (%.0f FCFA)", a.Severity, a.Description, a.Amount))
	}
	if stats.PotentialSavings > 0 {
		summary.KeyFindings = append(summary.KeyFindings,
			fmt.Sprintf("Total recouvrable estime: %.0f FCFA", stats.PotentialSavings))
	}

	seen := make(map[string]bool)
	for _, a := range top {
		if a.Recommendation == "" || seen[a.Recommendation] {
			continue
		}
		seen[a.Recommendation] = true
		summary.Recommendations = append(summary.Recommendations, a.Recommendation)
	}
	return summary
}
