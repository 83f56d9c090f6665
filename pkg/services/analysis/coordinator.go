package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/ai"
	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options tune one analysis run.
type Options struct {
	Progress      domain.ProgressFunc
	AIBatchSize   int
	AIConcurrency int
}

// Coordinator is the engine's top-level entry point: it runs the rule-based
// detector set, optionally the AI orchestrator, and aggregates everything
// into one AnalysisResult.
type Coordinator struct {
	registry     *detect.Registry
	orchestrator *ai.Orchestrator // nil when no AI provider is configured
}

func NewCoordinator(registry *detect.Registry, orchestrator *ai.Orchestrator) *Coordinator {
	return &Coordinator{registry: registry, orchestrator: orchestrator}
}

// AnalyzeTransactions runs one full analysis. Only configuration errors are
// fatal; detector and AI module failures are recorded per module and the run
// completes with partial results.
func (c *Coordinator) AnalyzeTransactions(
	ctx context.Context,
	txs []domain.Transaction,
	bank domain.BankConditions,
	cfg domain.AnalysisConfig,
	opts Options,
) (domain.AnalysisResult, error) {
	logger := zerolog.Ctx(ctx)

	result := domain.AnalysisResult{
		ID:        uuid.NewString(),
		Config:    cfg,
		Status:    domain.AnalysisRunning,
		StartedAt: time.Now().UTC(),
	}

	if len(txs) == 0 {
		result.Status = domain.AnalysisFailed
		result.Error = "empty transaction set"
		result.CompletedAt = time.Now().UTC()
		return result, fmt.Errorf("empty transaction set")
	}
	if bank.BankCode == "" && len(bank.Grids) == 0 && len(bank.Current.Fees) == 0 {
		result.Status = domain.AnalysisFailed
		result.Error = "no bank conditions resolvable"
		result.CompletedAt = time.Now().UTC()
		return result, fmt.Errorf("no bank conditions resolvable")
	}
	if cfg.Mode == domain.ModeAI && c.orchestrator == nil {
		// Otherwise the run would execute zero modules and report a clean
		// result for a misconfiguration.
		result.Status = domain.AnalysisFailed
		result.Error = "ai mode requested but no provider configured"
		result.CompletedAt = time.Now().UTC()
		return result, fmt.Errorf("ai mode requested but no provider configured")
	}

	detectors := c.registry.Enabled(cfg.EnabledDetectors)
	aiEnabled := c.orchestrator != nil && (cfg.Mode == domain.ModeAI || cfg.Mode == domain.ModeHybrid)
	runRules := cfg.Mode != domain.ModeAI

	totalModules := 0
	if runRules {
		totalModules += len(detectors)
	}
	aiModules := cfg.EnabledAIModules
	if aiEnabled {
		if len(aiModules) == 0 {
			aiModules = c.orchestrator.SupportedModules()
		}
		totalModules += len(aiModules)
	}

	completed := 0
	report := func(stage, module string) {
		completed++
		if opts.Progress != nil {
			opts.Progress(domain.Progress{
				Stage:            stage,
				CompletedModules: completed,
				TotalModules:     totalModules,
				CurrentModule:    module,
				Percent:          float64(completed) / float64(totalModules) * 100,
			})
		}
	}

	var ruleAnomalies []domain.Anomaly
	if runRules {
		for _, d := range detectors {
			anomalies, err := runDetector(ctx, d, txs, bank, cfg.Thresholds)
			if err != nil {
				logger.Warn().Err(err).Str("detector", d.ID()).Msg("detector failed")
				result.ModuleErrors = append(result.ModuleErrors, domain.ModuleError{
					Module: d.ID(), Source: "rule", Error: err.Error(),
				})
			}
			ruleAnomalies = append(ruleAnomalies, anomalies...)
			report("rules", d.ID())
		}
	}

	var aiAnomalies []domain.Anomaly
	if aiEnabled {
		orchRes := c.orchestrator.RunDetections(ctx, txs, aiModules, ai.OrchestratorOptions{
			BatchSize:   opts.AIBatchSize,
			Concurrency: opts.AIConcurrency,
			Progress: func(p domain.Progress) {
				report("ai", p.CurrentModule)
			},
		})
		aiAnomalies = orchRes.AllAnomalies
		result.ModuleErrors = append(result.ModuleErrors, orchRes.Errors...)
	}

	result.Anomalies = mergeAnomalies(ruleAnomalies, aiAnomalies)
	result.Statistics = computeStatistics(txs, result.Anomalies)
	result.Summary = buildSummary(result.Anomalies, result.Statistics)
	result.Status = domain.AnalysisCompleted
	result.CompletedAt = time.Now().UTC()
	return result, nil
}

// runDetector isolates one detector: a panic inside it becomes a module
// error instead of aborting the run.
func runDetector(
	ctx context.Context,
	d detect.Detector,
	txs []domain.Transaction,
	bank domain.BankConditions,
	th domain.DetectionThresholds,
) (anomalies []domain.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			anomalies = nil
			err = fmt.Errorf("detector %s panicked: %v", d.ID(), r)
		}
	}()
	return d.Detect(ctx, txs, bank, th)
}

// mergeAnomalies combines rule-based and AI findings. When both report the
// same type over the same transaction set, the rule-based anomaly wins and
// the AI finding is folded in as corroboration; savings are not counted
// twice.
func mergeAnomalies(rules, aiFindings []domain.Anomaly) []domain.Anomaly {
	merged := make([]domain.Anomaly, len(rules))
	copy(merged, rules)

	index := make(map[string]int, len(merged))
	for i, a := range merged {
		index[anomalyKey(a)] = i
	}

	for _, a := range aiFindings {
		key := anomalyKey(a)
		if i, ok := index[key]; ok {
			if a.Confidence > merged[i].Confidence {
				merged[i].Confidence = a.Confidence
			}
			merged[i].Evidence = append(merged[i].Evidence, domain.Evidence{
				Type:        domain.EvidenceReason,
				Description: "Constat corrobore par l'analyse IA: " + a.Description,
				Value:       a.Amount,
			})
			continue
		}
		index[key] = len(merged)
		merged = append(merged, a)
	}
	return merged
}

func anomalyKey(a domain.Anomaly) string {
	ids := make([]string, 0, len(a.Transactions))
	for _, tx := range a.Transactions {
		ids = append(ids, tx.ID)
	}
	sort.Strings(ids)
	return string(a.Type) + "|" + strings.Join(ids, ",")
}
