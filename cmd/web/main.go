package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/server"
	"github.com/audit-tools/fee-atlas/pkg/services/ai"
	"github.com/audit-tools/fee-atlas/pkg/services/analysis"
	"github.com/audit-tools/fee-atlas/pkg/services/config"
	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Fee Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "fee-atlas.yaml",
		"Path to the engine config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := &config.Config{}
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	} else {
		logger.Info().Msgf("No configuration at `%s`, running with defaults.", cfgPath)
	}

	router, err := cfg.BuildRouter()
	if err != nil {
		return fmt.Errorf("failed to configure AI providers: %w", err)
	}
	var orchestrator *ai.Orchestrator
	if router != nil {
		orchestrator = ai.NewOrchestrator(router)
		logger.Info().Strs("modules", orchestrator.SupportedModules()).Msg("AI detection enabled")
	} else {
		logger.Info().Msg("No AI provider enabled, rule-based detection only")
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	registry := detect.DefaultRegistry()
	webAPI := server.NewWebAPI(server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Analyzer:   analysis.NewCoordinator(registry, orchestrator),
			Catalog:    tariff.NewCatalog(),
			Registry:   registry,
			Router:     router,
			Mode:       cfg.AnalysisMode(),
			Thresholds: cfg.DetectionThresholds(),
			Logger:     logger,
		},
	})

	return webAPI.Start()
}
