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

// OpenAIConfig configures an OpenAI-compatible chat-completions backend.
// DeepSeek exposes the same wire format, so both adapters share this client.
type OpenAIConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type openAIProvider struct {
	cfg    OpenAIConfig
	client *retryablehttp.Client
}

// NewOpenAI returns the premium-tier adapter.
func NewOpenAI(cfg OpenAIConfig) Provider {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return newOpenAICompatible(cfg)
}

// NewDeepSeek returns the fast/cheap adapter, wire-compatible with OpenAI.
func NewDeepSeek(cfg OpenAIConfig) Provider {
	if cfg.Name == "" {
		cfg.Name = "deepseek"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	return newOpenAICompatible(cfg)
}

func newOpenAICompatible(cfg OpenAIConfig) Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil
	return &openAIProvider{cfg: cfg, client: client}
}

func (p *openAIProvider) Name() string { return p.cfg.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *openAIProvider) complete(ctx context.Context, system, user string, jsonMode bool) (string, int, error) {
	reqBody := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%s request failed: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("failed to decode %s response: %w", p.cfg.Name, err)
	}
	if parsed.Error != nil {
		return "", 0, fmt.Errorf("%s: %s", p.cfg.Name, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%s: unexpected status %d", p.cfg.Name, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", 0, fmt.Errorf("%s: empty completion", p.cfg.Name)
	}
	return parsed.Choices[0].Message.Content, parsed.Usage.TotalTokens, nil
}

func (p *openAIProvider) CategorizeTransactions(ctx context.Context, txs []domain.Transaction) ([]CategorizedTransaction, error) {
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

func (p *openAIProvider) AnalyzeFraud(ctx context.Context, txs []domain.Transaction) (FraudAssessment, error) {
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

func (p *openAIProvider) GenerateReport(ctx context.Context, result domain.AnalysisResult) (string, error) {
	payload, err := json.Marshal(result.Statistics)
	if err != nil {
		return "", err
	}
	content, _, err := p.complete(ctx, reportSystemPrompt, string(payload), false)
	return content, err
}

func (p *openAIProvider) Chat(ctx context.Context, message string) (string, error) {
	content, _, err := p.complete(ctx, chatSystemPrompt, message, false)
	return content, err
}

func (p *openAIProvider) TestConnection(ctx context.Context) ConnectionStatus {
	logger := zerolog.Ctx(ctx)
	_, _, err := p.complete(ctx, "Reply with the single word: ok", "ping", false)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.cfg.Name).Msg("connection test failed")
		return ConnectionStatus{Valid: false, Model: p.cfg.Model, Error: err.Error()}
	}
	return ConnectionStatus{Valid: true, Model: p.cfg.Model}
}

func (p *openAIProvider) Detect(ctx context.Context, moduleID string, batch []domain.Transaction) (DetectionResponse, error) {
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
