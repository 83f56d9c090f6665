package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/adapters"
	"github.com/audit-tools/fee-atlas/pkg/models/api"
	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/ai"
	"github.com/audit-tools/fee-atlas/pkg/services/analysis"
	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
	"github.com/rs/zerolog"
)

// Analyzer runs one detection pass over a statement.
type Analyzer interface {
	AnalyzeTransactions(
		ctx context.Context,
		txs []domain.Transaction,
		bank domain.BankConditions,
		cfg domain.AnalysisConfig,
		opts analysis.Options,
	) (domain.AnalysisResult, error)
}

type Handler struct {
	analyzer   Analyzer
	catalog    *tariff.Catalog
	registry   *detect.Registry
	router     *ai.Router // nil when no AI provider is configured
	mode       domain.AnalysisMode
	thresholds domain.DetectionThresholds
}

func NewHandler(
	analyzer Analyzer,
	catalog *tariff.Catalog,
	registry *detect.Registry,
	router *ai.Router,
	mode domain.AnalysisMode,
	thresholds domain.DetectionThresholds,
) *Handler {
	return &Handler{
		analyzer:   analyzer,
		catalog:    catalog,
		registry:   registry,
		router:     router,
		mode:       mode,
		thresholds: thresholds,
	}
}

func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "transactions cannot be empty")
		return
	}

	txs := make([]domain.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		txs = append(txs, adapters.MapTransactionApiToDomain(t))
	}

	mode := h.mode
	if req.Mode != "" {
		mode = domain.AnalysisMode(req.Mode)
	}
	cfg := domain.AnalysisConfig{
		ClientID:         req.ClientId,
		Mode:             mode,
		Thresholds:       h.thresholds,
		EnabledDetectors: req.EnabledDetectors,
	}

	bank := h.catalog.Conditions(req.BankCode, time.Now().UTC())
	result, err := h.analyzer.AnalyzeTransactions(ctx, txs, bank, cfg, analysis.Options{})
	if err != nil {
		logger.Error().Err(err).Str("client", req.ClientId).Msg("analysis failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, logger, http.StatusOK, adapters.MapAnalysisResultDomainToApi(result, req.BankCode))
}

func (h *Handler) ListDetectors(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	response := make([]api.Detector, 0)
	for _, d := range h.registry.Enabled(nil) {
		response = append(response, api.Detector{Id: d.ID(), Label: d.Label()})
	}
	writeJSON(w, logger, http.StatusOK, response)
}

func (h *Handler) EstimateCost(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if h.router == nil {
		writeError(w, http.StatusServiceUnavailable, "no AI provider configured")
		return
	}

	var req api.CostEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionCount <= 0 {
		writeError(w, http.StatusBadRequest, "transaction_count must be positive")
		return
	}

	est := h.router.EstimateCost(req.Modules, req.TransactionCount)
	writeJSON(w, logger, http.StatusOK, api.CostEstimate{
		TotalUSD:    est.TotalUSD,
		ByModule:    est.ByModule,
		TotalTokens: est.TotalToks,
	})
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Error: msg})
}
