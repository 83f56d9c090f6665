package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// ErrMalformedPayload marks a provider response whose structured content
// could not be parsed; the orchestrator degrades instead of failing.
var ErrMalformedPayload = errors.New("malformed detection payload")

const categorizeSystemPrompt = `You are a banking analyst for CEMAC/UEMOA bank statements.
Categorize each transaction. Respond with JSON: {"transactions":[{"transaction_id","category","confidence"}]}.`

const fraudSystemPrompt = `You are a fraud analyst for CEMAC/UEMOA bank statements.
Assess the transaction set. Respond with JSON: {"risk_score","patterns","reasoning"}.`

const reportSystemPrompt = `You write concise audit report summaries in French for accounting firms.
Summarize the analysis statistics you receive in at most 200 words.`

const chatSystemPrompt = `You assist accountants auditing CEMAC/UEMOA bank statements. Answer in French.`

// moduleInstructions tailor the detection prompt per module id.
var moduleInstructions = map[string]string{
	"duplicates":     "Find charges billed more than once for the same service.",
	"ghost_fees":     "Find fees with no identifiable underlying service.",
	"overcharges":    "Find fees that look overpriced versus typical CEMAC/UEMOA bank tariffs.",
	"interest":       "Find debtor interest (agios) inconsistent with the visible overdraft history.",
	"value_dates":    "Find abusive value-date lags between operation and value dates.",
	"compliance":     "Find charges violating OHADA/COBAC fee documentation rules.",
	"aml":            "Find LCB-FT red flags: threshold breaches, structuring, rapid repetition.",
	"fraud_patterns": "Find transaction patterns suggesting fraudulent or manipulated billing.",
}

func detectionSystemPrompt(moduleID string) string {
	instruction, ok := moduleInstructions[moduleID]
	if !ok {
		instruction = "Find billing anomalies."
	}
	return fmt.Sprintf(`You audit CEMAC/UEMOA bank statements for recoverable billing anomalies.
%s
Respond with JSON only:
{"findings":[{"type","severity","amount","description","recommendation","confidence","transaction_ids","reasoning"}]}
severity is one of low, medium, high, critical. amount is the recoverable FCFA. confidence is 0..1.
Return {"findings":[]} when nothing is anomalous.`, instruction)
}

func transactionsPayload(txs []domain.Transaction) string {
	type line struct {
		ID          string  `json:"id"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Balance     float64 `json:"balance"`
		Type        string  `json:"type"`
	}
	lines := make([]line, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, line{
			ID:          tx.ID,
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      tx.Amount,
			Balance:     tx.Balance,
			Type:        string(tx.Type),
		})
	}
	payload, _ := json.Marshal(lines)
	return string(payload)
}

// parseDetectionContent decodes a model's detection payload, tolerating
// content wrapped in markdown fences.
func parseDetectionContent(content string) (DetectionResponse, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var resp DetectionResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &resp); err != nil {
		return DetectionResponse{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return resp, nil
}
