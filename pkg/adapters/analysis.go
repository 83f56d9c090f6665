package adapters

import (
	"github.com/audit-tools/fee-atlas/pkg/models/api"
	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityCritical:
		return api.SeverityCritical
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityMedium:
		return api.SeverityMedium
	default:
		return api.SeverityLow
	}
}

func MapTransactionApiToDomain(t api.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:            t.Id,
		Date:          t.Date,
		ValueDate:     t.ValueDate,
		Description:   t.Description,
		Amount:        t.Amount,
		Balance:       t.Balance,
		Type:          domain.TransactionType(t.Type),
		ClientID:      t.ClientId,
		BankCode:      t.BankCode,
		Reference:     t.Reference,
		AccountNumber: t.AccountNumber,
	}
}

func MapEvidenceDomainToApi(e domain.Evidence) api.Evidence {
	return api.Evidence{
		Type:          string(e.Type),
		Description:   e.Description,
		Value:         e.Value,
		ExpectedValue: e.ExpectedValue,
		AppliedValue:  e.AppliedValue,
		Source:        e.Source,
		RegulatoryRef: e.RegulatoryRef,
	}
}

func MapAnomalyDomainToApi(a domain.Anomaly) api.Anomaly {
	res := api.Anomaly{
		Id:             a.ID,
		Type:           string(a.Type),
		Severity:       MapSeverityDomainToApi(a.Severity),
		Amount:         a.Amount,
		Description:    a.Description,
		Recommendation: a.Recommendation,
		Confidence:     a.Confidence,
		DetectedAt:     a.DetectedAt,
		Status:         string(a.Status),
	}
	for _, tx := range a.Transactions {
		res.TransactionIds = append(res.TransactionIds, tx.ID)
	}
	for _, e := range a.Evidence {
		res.Evidence = append(res.Evidence, MapEvidenceDomainToApi(e))
	}
	return res
}

func MapStatisticsDomainToApi(s domain.AnalysisStatistics) api.Statistics {
	res := api.Statistics{
		TotalTransactions: s.TotalTransactions,
		TotalAnomalies:    s.TotalAnomalies,
		AnomalyRate:       s.AnomalyRate,
		PotentialSavings:  s.PotentialSavings,
		ByType:            map[string]int{},
		BySeverity:        map[string]int{},
	}
	for t, n := range s.ByType {
		res.ByType[string(t)] = n
	}
	for sev, n := range s.BySeverity {
		res.BySeverity[sev.String()] = n
	}
	return res
}

func MapAnalysisResultDomainToApi(r domain.AnalysisResult, bankCode string) api.AnalysisReport {
	res := api.AnalysisReport{
		Id:         r.ID,
		ClientId:   r.Config.ClientID,
		BankCode:   bankCode,
		Mode:       string(r.Config.Mode),
		Status:     string(r.Status),
		Anomalies:  make([]api.Anomaly, 0, len(r.Anomalies)),
		Statistics: MapStatisticsDomainToApi(r.Statistics),
		Summary: api.Summary{
			Status:          string(r.Summary.Status),
			KeyFindings:     r.Summary.KeyFindings,
			Recommendations: r.Summary.Recommendations,
		},
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	for _, a := range r.Anomalies {
		res.Anomalies = append(res.Anomalies, MapAnomalyDomainToApi(a))
	}
	for _, me := range r.ModuleErrors {
		res.ModuleErrors = append(res.ModuleErrors, api.ModuleError{
			Module: me.Module,
			Source: me.Source,
			Error:  me.Error,
		})
	}
	return res
}
