package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// OllamaConfig configures the locally-hosted adapter.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ollamaProvider struct {
	cfg    OllamaConfig
	client *retryablehttp.Client
}

// NewOllama returns the local adapter, speaking Ollama's native chat API.
func NewOllama(cfg OllamaConfig) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil
	return &ollamaProvider{cfg: cfg, client: client}
}

func (p *ollamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message   chatMessage `json:"message"`
	EvalCount int         `json:"eval_count"`
	Error     string      `json:"error"`
}

func (p *ollamaProvider) complete(ctx context.Context, system, user string, jsonMode bool) (string, int, error) {
	reqBody := ollamaChatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		reqBody.Format = "json"
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", 0, fmt.Errorf("ollama: %s", parsed.Error)
	}
	return parsed.Message.Content, parsed.EvalCount, nil
}

func (p *ollamaProvider) CategorizeTransactions(ctx context.Context, txs []domain.Transaction) ([]CategorizedTransaction, error) {
	content, _, err := p.complete(ctx, categorizeSystemPrompt, transactionsPayload(txs), true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Transactions []CategorizedTransaction `json:"transactions"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse categorization: %w", err)
	}
	return out.Transactions, nil
}

func (p *ollamaProvider) AnalyzeFraud(ctx context.Context, txs []domain.Transaction) (FraudAssessment, error) {
	content, _, err := p.complete(ctx, fraudSystemPrompt, transactionsPayload(txs), true)
	if err != nil {
		return FraudAssessment{}, err
	}
	var out FraudAssessment
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return FraudAssessment{}, fmt.Errorf("failed to parse fraud assessment: %w", err)
	}
	return out, nil
}

func (p *ollamaProvider) GenerateReport(ctx context.Context, result domain.AnalysisResult) (string, error) {
	payload, err := json.Marshal(result.Statistics)
	if err != nil {
		return "", err
	}
	content, _, err := p.complete(ctx, reportSystemPrompt, string(payload), false)
	return content, err
}

func (p *ollamaProvider) Chat(ctx context.Context, message string) (string, error) {
	content, _, err := p.complete(ctx, chatSystemPrompt, message, false)
	return content, err
}

func (p *ollamaProvider) TestConnection(ctx context.Context) ConnectionStatus {
	logger := zerolog.Ctx(ctx)
	_, _, err := p.complete(ctx, "Reply with the single word: ok", "ping", false)
	if err != nil {
		logger.Warn().Err(err).Str("provider", "ollama").Msg("connection test failed")
		return ConnectionStatus{Valid: false, Model: p.cfg.Model, Error: err.Error()}
	}
	return ConnectionStatus{Valid: true, Model: p.cfg.Model}
}

func (p *ollamaProvider) Detect(ctx context.Context, moduleID string, batch []domain.Transaction) (DetectionResponse, error) {
	content, tokens, err := p.complete(ctx, detectionSystemPrompt(moduleID), transactionsPayload(batch), true)
	if err != nil {
		return DetectionResponse{}, err
	}
	resp, err := parseDetectionContent(content)
	if err != nil {
		return DetectionResponse{}, err
	}
	resp.TokensUsed = tokens
	return resp, nil
}
