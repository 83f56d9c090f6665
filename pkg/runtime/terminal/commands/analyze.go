package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/adapters"
	"github.com/audit-tools/fee-atlas/pkg/models/api"
	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/runtime/terminal/export"
	"github.com/audit-tools/fee-atlas/pkg/services/ai"
	"github.com/audit-tools/fee-atlas/pkg/services/analysis"
	"github.com/audit-tools/fee-atlas/pkg/services/config"
	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd runs a full detection pass over a statement file and prints
// the report.
func NewAnalyzeCmd(reporter *export.Reporter) *cobra.Command {
	var (
		inputPath      string
		conditionsPath string
		cfgPath        string
		bankCode       string
		clientID       string
		mode           string
		detectorIDs    []string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a bank statement for billing anomalies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			ctx := logger.WithContext(cmd.Context())

			cfg := &config.Config{}
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loaded
			}

			txs, err := loadStatement(inputPath)
			if err != nil {
				return err
			}

			catalog := tariff.NewCatalog()
			if conditionsPath != "" {
				if err := loadConditions(catalog, conditionsPath); err != nil {
					return err
				}
			}

			router, err := cfg.BuildRouter()
			if err != nil {
				return fmt.Errorf("failed to configure AI providers: %w", err)
			}
			var orchestrator *ai.Orchestrator
			if router != nil {
				orchestrator = ai.NewOrchestrator(router)
			}

			analysisMode := cfg.AnalysisMode()
			if mode != "" {
				analysisMode = domain.AnalysisMode(mode)
			}
			enabled := cfg.EnabledDetectors
			if len(detectorIDs) > 0 {
				enabled = detectorIDs
			}

			coordinator := analysis.NewCoordinator(detect.DefaultRegistry(), orchestrator)
			result, err := coordinator.AnalyzeTransactions(
				ctx,
				txs,
				catalog.Conditions(bankCode, time.Now().UTC()),
				domain.AnalysisConfig{
					ClientID:         clientID,
					Mode:             analysisMode,
					Thresholds:       cfg.DetectionThresholds(),
					EnabledDetectors: enabled,
					EnabledAIModules: cfg.EnabledAIModules,
				},
				analysis.Options{
					Progress: func(p domain.Progress) {
						logger.Info().
							Str("stage", p.Stage).
							Str("module", p.CurrentModule).
							Float64("percent", p.Percent).
							Msg("analysis progress")
					},
				},
			)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			report := adapters.MapAnalysisResultDomainToApi(result, bankCode)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return reporter.Handle(&report)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the statement JSON file")
	cmd.Flags().StringVar(&conditionsPath, "conditions", "", "Path to a bank conditions JSON file")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the engine config file")
	cmd.Flags().StringVarP(&bankCode, "bank", "b", "", "Bank code of the statement")
	cmd.Flags().StringVar(&clientID, "client", "", "Client identifier")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Analysis mode: algorithmic, ai or hybrid")
	cmd.Flags().StringSliceVar(&detectorIDs, "detectors", nil, "Detector ids to run (default all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw JSON report")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}

func loadStatement(path string) ([]domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement file: %w", err)
	}
	var lines []api.Transaction
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to parse statement file: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(lines))
	for i, line := range lines {
		tx := adapters.MapTransactionApiToDomain(line)
		if tx.ID == "" {
			tx.ID = fmt.Sprintf("line-%d", i+1)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

type conditionsFile struct {
	BankCode string `json:"bank_code"`
	Grids    []struct {
		ID             string     `json:"id"`
		Name           string     `json:"name"`
		Version        string     `json:"version"`
		EffectiveDate  time.Time  `json:"effective_date"`
		ExpirationDate *time.Time `json:"expiration_date"`
		Status         string     `json:"status"`
		Fees           []struct {
			Code   string  `json:"code"`
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
			Rate   float64 `json:"rate"`
			Basis  string  `json:"basis"`
		} `json:"fees"`
		Interests []struct {
			Type       string  `json:"type"`
			AnnualRate float64 `json:"annual_rate"`
			Method     string  `json:"method"`
			DayCount   string  `json:"day_count"`
		} `json:"interests"`
	} `json:"grids"`
}

func loadConditions(catalog *tariff.Catalog, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read conditions file: %w", err)
	}
	var file conditionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse conditions file: %w", err)
	}

	for _, g := range file.Grids {
		grid := domain.ConditionGrid{
			ID:             g.ID,
			BankCode:       file.BankCode,
			Name:           g.Name,
			Version:        g.Version,
			EffectiveDate:  g.EffectiveDate,
			ExpirationDate: g.ExpirationDate,
			Status:         domain.GridStatus(g.Status),
		}
		for _, f := range g.Fees {
			grid.Fees = append(grid.Fees, domain.FeeCondition{
				Code:   f.Code,
				Name:   f.Name,
				Amount: f.Amount,
				Rate:   f.Rate,
				Basis:  domain.FeeBasis(f.Basis),
			})
		}
		for _, in := range g.Interests {
			grid.Interests = append(grid.Interests, domain.InterestCondition{
				Type:       domain.InterestType(in.Type),
				AnnualRate: in.AnnualRate,
				Method:     domain.InterestMethod(in.Method),
				DayCount:   domain.DayCount(in.DayCount),
			})
		}
		if err := catalog.Register(grid); err != nil {
			return fmt.Errorf("failed to register grid %q: %w", g.ID, err)
		}
	}
	return nil
}
