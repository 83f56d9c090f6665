package ai

import (
	"context"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// Tier is the cost/quality class a detection module is routed to.
type Tier string

const (
	TierFast     Tier = "fast"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// CategorizedTransaction is one transaction with the category the model
// assigned to it.
type CategorizedTransaction struct {
	TransactionID string  `json:"transaction_id"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
}

// FraudAssessment is the structured output of a fraud analysis call.
type FraudAssessment struct {
	RiskScore float64  `json:"risk_score"`
	Patterns  []string `json:"patterns"`
	Reasoning string   `json:"reasoning"`
}

// DetectionFinding is one anomaly candidate returned by a detection module
// call, before mapping into the domain model.
type DetectionFinding struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Amount         float64  `json:"amount"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	TransactionIDs []string `json:"transaction_ids"`
	Reasoning      string   `json:"reasoning"`
}

// DetectionResponse is the parsed payload of one Detect batch call.
type DetectionResponse struct {
	Findings   []DetectionFinding `json:"findings"`
	TokensUsed int                `json:"-"`
}

// ConnectionStatus is the structured result of TestConnection. Provider
// failures are reported here, never raised past this boundary.
type ConnectionStatus struct {
	Valid bool
	Model string
	Error string
}

// Provider is the uniform capability interface over language-model
// backends. One adapter per backend; the router selects an adapter by tag,
// never by type inspection.
type Provider interface {
	Name() string
	CategorizeTransactions(ctx context.Context, txs []domain.Transaction) ([]CategorizedTransaction, error)
	AnalyzeFraud(ctx context.Context, txs []domain.Transaction) (FraudAssessment, error)
	GenerateReport(ctx context.Context, result domain.AnalysisResult) (string, error)
	Chat(ctx context.Context, message string) (string, error)
	TestConnection(ctx context.Context) ConnectionStatus
	Detect(ctx context.Context, moduleID string, batch []domain.Transaction) (DetectionResponse, error)
}
