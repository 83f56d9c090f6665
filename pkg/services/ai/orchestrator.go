package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 50
	defaultConcurrency = 3
)

// OrchestratorOptions tune one RunDetections call.
type OrchestratorOptions struct {
	BatchSize   int
	Concurrency int
	Progress    domain.ProgressFunc
}

// ModuleResult is the outcome of one detection module.
type ModuleResult struct {
	ModuleID   string
	Tier       Tier
	Provider   string
	Anomalies  []domain.Anomaly
	TokensUsed int
	Batches    int
}

// OrchestrationResult aggregates an AI detection run. Success stays true on
// partial failures; only a run that produced nothing at all and only errors
// is unsuccessful.
type OrchestrationResult struct {
	Success        bool
	Results        []ModuleResult
	AllAnomalies   []domain.Anomaly
	Summary        string
	TokensUsed     int
	ProcessingTime time.Duration
	Errors         []domain.ModuleError
}

// Orchestrator drives AI-backed detection modules through the router.
type Orchestrator struct {
	router *Router
}

func NewOrchestrator(router *Router) *Orchestrator {
	return &Orchestrator{router: router}
}

// SupportedModules exposes the router's module set.
func (o *Orchestrator) SupportedModules() []string {
	return o.router.SupportedModules()
}

// RunDetections partitions transactions into batches per enabled module,
// invokes the routed provider per batch and merges findings. One module's
// failure is recorded and does not block other modules.
func (o *Orchestrator) RunDetections(
	ctx context.Context,
	txs []domain.Transaction,
	modules []string,
	opts OrchestratorOptions,
) OrchestrationResult {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if len(modules) == 0 {
		modules = o.router.SupportedModules()
	}

	result := OrchestrationResult{}
	batches := partition(txs, opts.BatchSize)

	for i, moduleID := range modules {
		if ctx.Err() != nil {
			// Run abandoned: return best-effort partials without awaiting
			// further batches.
			result.Errors = append(result.Errors, domain.ModuleError{
				Module: moduleID, Source: "ai", Error: ctx.Err().Error(),
			})
			break
		}
		modResult, modErr := o.runModule(ctx, moduleID, batches, opts)
		if modErr != nil {
			logger.Warn().Err(modErr).Str("module", moduleID).Msg("ai module failed")
			result.Errors = append(result.Errors, domain.ModuleError{
				Module: moduleID, Source: "ai", Error: modErr.Error(),
			})
		}
		result.Results = append(result.Results, modResult)
		result.AllAnomalies = append(result.AllAnomalies, modResult.Anomalies...)
		result.TokensUsed += modResult.TokensUsed

		if opts.Progress != nil {
			opts.Progress(domain.Progress{
				Stage:            "ai",
				CompletedModules: i + 1,
				TotalModules:     len(modules),
				CurrentModule:    moduleID,
				Percent:          float64(i+1) / float64(len(modules)) * 100,
			})
		}
	}

	result.ProcessingTime = time.Since(start)
	result.Success = len(result.Errors) < len(modules)
	result.Summary = fmt.Sprintf("%d modules, %d anomalies, %d erreurs, %d tokens",
		len(result.Results), len(result.AllAnomalies), len(result.Errors), result.TokensUsed)
	return result
}

// runModule executes all batches of one module on a bounded worker group.
// A malformed batch payload degrades to a low-confidence anomaly instead of
// failing the module.
func (o *Orchestrator) runModule(
	ctx context.Context,
	moduleID string,
	batches [][]domain.Transaction,
	opts OrchestratorOptions,
) (ModuleResult, error) {
	provider := o.router.ProviderFor(moduleID)
	modResult := ModuleResult{
		ModuleID: moduleID,
		Tier:     o.router.TierFor(moduleID),
		Provider: provider.Name(),
		Batches:  len(batches),
	}

	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			resp, err := provider.Detect(gctx, moduleID, batch)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				modResult.TokensUsed += resp.TokensUsed
				for _, f := range resp.Findings {
					modResult.Anomalies = append(modResult.Anomalies, mapFinding(moduleID, provider.Name(), f, batch))
				}
			case errors.Is(err, ErrMalformedPayload):
				modResult.Anomalies = append(modResult.Anomalies, degradedAnomaly(moduleID, provider.Name(), batch))
			default:
				if firstErr == nil {
					firstErr = err
				}
			}
			// Batch failures never fail the group; the module error is
			// reported once, after all batches finished.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(modResult.Anomalies, func(i, j int) bool {
		return modResult.Anomalies[i].Amount > modResult.Anomalies[j].Amount
	})
	return modResult, firstErr
}

func mapFinding(moduleID, providerName string, f DetectionFinding, batch []domain.Transaction) domain.Anomaly {
	byID := make(map[string]domain.Transaction, len(batch))
	for _, tx := range batch {
		byID[tx.ID] = tx
	}
	var implicated []domain.Transaction
	for _, id := range f.TransactionIDs {
		if tx, ok := byID[id]; ok {
			implicated = append(implicated, tx)
		}
	}

	a := domain.Anomaly{
		ID:             uuid.NewString(),
		Type:           anomalyTypeFor(moduleID, f.Type),
		Severity:       severityFor(f.Severity),
		Amount:         math.Max(0, f.Amount),
		Description:    f.Description,
		Recommendation: f.Recommendation,
		Confidence:     clamp01(f.Confidence),
		Transactions:   implicated,
		DetectedAt:     time.Now().UTC(),
		Status:         domain.AnomalyPending,
	}
	if f.Reasoning != "" {
		a.Evidence = append(a.Evidence, domain.Evidence{
			Type:        domain.EvidenceReason,
			Description: f.Reasoning,
			Value:       a.Amount,
			Source:      fmt.Sprintf("ai:%s:%s", providerName, moduleID),
		})
	}
	return a
}

// degradedAnomaly is the best-effort finding emitted when a batch response
// could not be parsed.
func degradedAnomaly(moduleID, providerName string, batch []domain.Transaction) domain.Anomaly {
	return domain.Anomaly{
		ID:          uuid.NewString(),
		Type:        domain.AnomalySuspiciousPattern,
		Severity:    domain.SeverityLow,
		Description: fmt.Sprintf("Lot de %d operations signale par le module %s (reponse IA illisible)", len(batch), moduleID),
		Recommendation: "Revue manuelle du lot recommandee.",
		Confidence:  0.3,
		Transactions: batch,
		Evidence: []domain.Evidence{{
			Type:        domain.EvidenceReason,
			Description: "Reponse structuree du modele illisible, degradation en signalement de lot",
			Source:      fmt.Sprintf("ai:%s:%s", providerName, moduleID),
		}},
		DetectedAt: time.Now().UTC(),
		Status:     domain.AnomalyPending,
	}
}

var knownAnomalyTypes = map[string]domain.AnomalyType{
	"duplicate_fee":      domain.AnomalyDuplicateFee,
	"ghost_fee":          domain.AnomalyGhostFee,
	"overcharge":         domain.AnomalyOvercharge,
	"excessive_interest": domain.AnomalyExcessiveInterest,
	"value_date_abuse":   domain.AnomalyValueDateAbuse,
	"undocumented_fee":   domain.AnomalyUndocumentedFee,
	"aml_structuring":    domain.AnomalyAMLStructuring,
	"suspicious_pattern": domain.AnomalySuspiciousPattern,
}

func anomalyTypeFor(moduleID, raw string) domain.AnomalyType {
	if t, ok := knownAnomalyTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	if t, ok := knownAnomalyTypes[moduleID]; ok {
		return t
	}
	return domain.AnomalySuspiciousPattern
}

func severityFor(raw string) domain.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return domain.SeverityCritical
	case "high":
		return domain.SeverityHigh
	case "medium":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func partition(txs []domain.Transaction, size int) [][]domain.Transaction {
	var batches [][]domain.Transaction
	for start := 0; start < len(txs); start += size {
		end := start + size
		if end > len(txs) {
			end = len(txs)
		}
		batches = append(batches, txs[start:end])
	}
	return batches
}
