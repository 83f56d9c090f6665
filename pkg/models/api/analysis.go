package api

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Transaction struct {
	Id            string     `json:"id,omitempty"`
	Date          time.Time  `json:"date"`
	ValueDate     *time.Time `json:"value_date,omitempty"`
	Description   string     `json:"description"`
	Amount        float64    `json:"amount"`
	Balance       float64    `json:"balance"`
	Type          string     `json:"type,omitempty"`
	ClientId      string     `json:"client_id,omitempty"`
	BankCode      string     `json:"bank_code,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	AccountNumber string     `json:"account_number,omitempty"`
}

type Evidence struct {
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Value         float64  `json:"value,omitempty"`
	ExpectedValue *float64 `json:"expected_value,omitempty"`
	AppliedValue  *float64 `json:"applied_value,omitempty"`
	Source        string   `json:"source,omitempty"`
	RegulatoryRef string   `json:"regulatory_ref,omitempty"`
}

type Anomaly struct {
	Id             string     `json:"id"`
	Type           string     `json:"type"`
	Severity       Severity   `json:"severity"`
	Amount         float64    `json:"amount"`
	Description    string     `json:"description"`
	Recommendation string     `json:"recommendation,omitempty"`
	Confidence     float64    `json:"confidence"`
	TransactionIds []string   `json:"transaction_ids,omitempty"`
	Evidence       []Evidence `json:"evidence,omitempty"`
	DetectedAt     time.Time  `json:"detected_at"`
	Status         string     `json:"status"`
}

type Statistics struct {
	TotalTransactions int                `json:"total_transactions"`
	TotalAnomalies    int                `json:"total_anomalies"`
	ByType            map[string]int     `json:"by_type,omitempty"`
	BySeverity        map[string]int     `json:"by_severity,omitempty"`
	AnomalyRate       float64            `json:"anomaly_rate"`
	PotentialSavings  float64            `json:"potential_savings"`
}

type Summary struct {
	Status          string   `json:"status"`
	KeyFindings     []string `json:"key_findings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type ModuleError struct {
	Module string `json:"module"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

type AnalysisReport struct {
	Id           string        `json:"id"`
	ClientId     string        `json:"client_id,omitempty"`
	BankCode     string        `json:"bank_code,omitempty"`
	Mode         string        `json:"mode"`
	Status       string        `json:"status"`
	Anomalies    []Anomaly     `json:"anomalies"`
	Statistics   Statistics    `json:"statistics"`
	Summary      Summary       `json:"summary"`
	ModuleErrors []ModuleError `json:"module_errors,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// AnalysisRequest is the POST body of an analysis run.
type AnalysisRequest struct {
	ClientId         string        `json:"client_id"`
	BankCode         string        `json:"bank_code"`
	Mode             string        `json:"mode,omitempty"`
	EnabledDetectors []string      `json:"enabled_detectors,omitempty"`
	Transactions     []Transaction `json:"transactions"`
}

type Detector struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type CostEstimateRequest struct {
	TransactionCount int      `json:"transaction_count"`
	Modules          []string `json:"modules,omitempty"`
}

type CostEstimate struct {
	TotalUSD    float64            `json:"total_usd"`
	ByModule    map[string]float64 `json:"by_module"`
	TotalTokens int                `json:"total_tokens"`
}

type Error struct {
	Error string `json:"error"`
}
