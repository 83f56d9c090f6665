package config

import (
	"fmt"
	"os"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/ai"
	"github.com/spf13/viper"
)

// ProviderConfig configures one AI backend. The API key is read from the
// named environment variable, never stored in the file.
type ProviderConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	Model     string `mapstructure:"model"`
	TimeoutS  int    `mapstructure:"timeout_seconds"`
}

type AIConfig struct {
	Premium ProviderConfig `mapstructure:"premium"`
	Fast    ProviderConfig `mapstructure:"fast"`
	Local   ProviderConfig `mapstructure:"local"`
}

type ThresholdsConfig struct {
	SimilarityThreshold      float64 `mapstructure:"similarity_threshold"`
	DuplicateWindowDays      int     `mapstructure:"duplicate_window_days"`
	AmountTolerance          float64 `mapstructure:"amount_tolerance"`
	OrphanWindowDays         int     `mapstructure:"orphan_window_days"`
	EntropyThreshold         float64 `mapstructure:"entropy_threshold"`
	MinConfidence            float64 `mapstructure:"min_confidence"`
	OverchargeTolerance      float64 `mapstructure:"overcharge_tolerance"`
	UseHistoricalBaseline    *bool   `mapstructure:"use_historical_baseline"`
	AMLCashThreshold         float64 `mapstructure:"aml_cash_threshold"`
	AMLStructuringWindowDays int     `mapstructure:"aml_structuring_window_days"`
	ValueDateMaxLagDays      int     `mapstructure:"value_date_max_lag_days"`
	LargeMovementMultiplier  float64 `mapstructure:"large_movement_multiplier"`
}

// Config is the engine configuration loaded from YAML.
type Config struct {
	Mode             string           `mapstructure:"mode"`
	EnabledDetectors []string         `mapstructure:"enabled_detectors"`
	EnabledAIModules []string         `mapstructure:"enabled_ai_modules"`
	Thresholds       ThresholdsConfig `mapstructure:"thresholds"`
	AI               AIConfig         `mapstructure:"ai"`
}

// Load reads the engine configuration file. Absent keys keep their
// defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("mode", string(domain.ModeAlgorithmic))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}
	return &cfg, nil
}

// Thresholds merges the configured overrides onto the defaults.
func (c *Config) DetectionThresholds() domain.DetectionThresholds {
	th := domain.DefaultThresholds()
	o := c.Thresholds
	if o.SimilarityThreshold > 0 {
		th.SimilarityThreshold = o.SimilarityThreshold
	}
	if o.DuplicateWindowDays > 0 {
		th.DuplicateWindowDays = o.DuplicateWindowDays
	}
	if o.AmountTolerance > 0 {
		th.AmountTolerance = o.AmountTolerance
	}
	if o.OrphanWindowDays > 0 {
		th.OrphanWindowDays = o.OrphanWindowDays
	}
	if o.EntropyThreshold > 0 {
		th.EntropyThreshold = o.EntropyThreshold
	}
	if o.MinConfidence > 0 {
		th.MinConfidence = o.MinConfidence
	}
	if o.OverchargeTolerance > 0 {
		th.OverchargeTolerance = o.OverchargeTolerance
	}
	if o.UseHistoricalBaseline != nil {
		th.UseHistoricalBaseline = *o.UseHistoricalBaseline
	}
	if o.AMLCashThreshold > 0 {
		th.AMLCashThreshold = o.AMLCashThreshold
	}
	if o.AMLStructuringWindowDays > 0 {
		th.AMLStructuringWindowDays = o.AMLStructuringWindowDays
	}
	if o.ValueDateMaxLagDays > 0 {
		th.ValueDateMaxLagDays = o.ValueDateMaxLagDays
	}
	if o.LargeMovementMultiplier > 0 {
		th.LargeMovementMultiplier = o.LargeMovementMultiplier
	}
	return th
}

// Mode returns the configured analysis mode, defaulting to algorithmic.
func (c *Config) AnalysisMode() domain.AnalysisMode {
	switch domain.AnalysisMode(c.Mode) {
	case domain.ModeAI, domain.ModeHybrid:
		return domain.AnalysisMode(c.Mode)
	default:
		return domain.ModeAlgorithmic
	}
}

// BuildRouter wires the configured providers into a tier router. Returns
// nil when no provider is enabled, which disables the AI path entirely.
func (c *Config) BuildRouter() (*ai.Router, error) {
	var fast, standard, premium ai.Provider

	if c.AI.Premium.Enabled {
		premium = ai.NewOpenAI(ai.OpenAIConfig{
			BaseURL: c.AI.Premium.BaseURL,
			APIKey:  os.Getenv(keyEnv(c.AI.Premium, "OPENAI_API_KEY")),
			Model:   c.AI.Premium.Model,
			Timeout: time.Duration(c.AI.Premium.TimeoutS) * time.Second,
		})
		standard = premium
	}
	if c.AI.Fast.Enabled {
		fast = ai.NewDeepSeek(ai.OpenAIConfig{
			BaseURL: c.AI.Fast.BaseURL,
			APIKey:  os.Getenv(keyEnv(c.AI.Fast, "DEEPSEEK_API_KEY")),
			Model:   c.AI.Fast.Model,
			Timeout: time.Duration(c.AI.Fast.TimeoutS) * time.Second,
		})
	}
	if c.AI.Local.Enabled {
		local := ai.NewOllama(ai.OllamaConfig{
			BaseURL: c.AI.Local.BaseURL,
			Model:   c.AI.Local.Model,
			Timeout: time.Duration(c.AI.Local.TimeoutS) * time.Second,
		})
		if fast == nil {
			fast = local
		}
		if standard == nil {
			standard = local
		}
	}

	if fast == nil && standard == nil && premium == nil {
		return nil, nil
	}
	return ai.NewRouter(fast, standard, premium)
}

func keyEnv(p ProviderConfig, fallback string) string {
	if p.APIKeyEnv != "" {
		return p.APIKeyEnv
	}
	return fallback
}
