package domain

import "time"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "low"
	}
}

type AnomalyType string

const (
	AnomalyDuplicateFee        AnomalyType = "duplicate_fee"
	AnomalyGhostFee            AnomalyType = "ghost_fee"
	AnomalyOvercharge          AnomalyType = "overcharge"
	AnomalyExcessiveInterest   AnomalyType = "excessive_interest"
	AnomalyUnjustifiedAgios    AnomalyType = "unjustified_agios"
	AnomalyValueDateAbuse      AnomalyType = "value_date_abuse"
	AnomalyUndocumentedFee     AnomalyType = "undocumented_fee"
	AnomalyRegulatedFreeFee    AnomalyType = "regulated_free_service_fee"
	AnomalyAMLCashThreshold    AnomalyType = "aml_cash_threshold"
	AnomalyAMLStructuring      AnomalyType = "aml_structuring"
	AnomalyAMLRapidSuccession  AnomalyType = "aml_rapid_succession"
	AnomalyAbnormalMovement    AnomalyType = "abnormal_movement"
	AnomalyBalanceBreak        AnomalyType = "balance_break"
	AnomalyReconciliationGap   AnomalyType = "reconciliation_gap"
	AnomalyMultiBankDisparity  AnomalyType = "multi_bank_disparity"
	AnomalyCategoryOverbilling AnomalyType = "category_overbilling"
	AnomalyTariffViolation     AnomalyType = "tariff_violation"
	AnomalySuspiciousPattern   AnomalyType = "suspicious_pattern"
)

type EvidenceType string

const (
	EvidenceDuplicate            EvidenceType = "duplicate"
	EvidenceComparison           EvidenceType = "comparison"
	EvidenceOfficialRate         EvidenceType = "official_rate"
	EvidenceMissingJustification EvidenceType = "missing_justification"
	EvidenceReason               EvidenceType = "reason"
)

// Evidence explains one anomaly. It is purely descriptive and never drives
// control flow.
type Evidence struct {
	Type          EvidenceType
	Description   string
	Value         float64
	ExpectedValue *float64
	AppliedValue  *float64
	Source        string
	RegulatoryRef string
}

type AnomalyStatus string

const (
	AnomalyPending   AnomalyStatus = "pending"
	AnomalyConfirmed AnomalyStatus = "confirmed"
	AnomalyDismissed AnomalyStatus = "dismissed"
	AnomalyContested AnomalyStatus = "contested"
)

// Anomaly is one recoverable billing finding. Created only by detectors;
// status transitions happen in the review workflow outside the engine.
type Anomaly struct {
	ID             string
	Type           AnomalyType
	Severity       Severity
	Amount         float64 // recoverable FCFA, always positive
	Description    string
	Recommendation string
	Confidence     float64 // 0..1
	Transactions   []Transaction
	Evidence       []Evidence
	DetectedAt     time.Time
	Status         AnomalyStatus
	Notes          string
}
