package domain

import "time"

type AnalysisMode string

const (
	ModeAlgorithmic AnalysisMode = "algorithmic"
	ModeAI          AnalysisMode = "ai"
	ModeHybrid      AnalysisMode = "hybrid"
)

// AnalysisConfig describes one analysis run. Supplied by the caller and
// treated as a read-only snapshot for the duration of the run.
type AnalysisConfig struct {
	ClientID         string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Mode             AnalysisMode
	Thresholds       DetectionThresholds
	EnabledDetectors []string // empty means all registered
	EnabledAIModules []string // empty means all supported by the router
}

type AnalysisStatus string

const (
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

type SummaryStatus string

const (
	SummaryOK       SummaryStatus = "OK"
	SummaryWarning  SummaryStatus = "WARNING"
	SummaryCritical SummaryStatus = "CRITICAL"
)

type AnalysisStatistics struct {
	TotalTransactions int
	TotalAnomalies    int
	ByType            map[AnomalyType]int
	BySeverity        map[Severity]int
	AnomalyRate       float64 // anomalies per transaction
	PotentialSavings  float64 // sum of anomaly amounts, FCFA
}

type AnalysisSummary struct {
	Status          SummaryStatus
	KeyFindings     []string
	Recommendations []string
}

// ModuleError records one detector or AI module that failed without
// aborting the run.
type ModuleError struct {
	Module string
	Source string // "rule" or "ai"
	Error  string
}

// AnalysisResult is the engine's sole output artifact. Immutable once
// Status == AnalysisCompleted.
type AnalysisResult struct {
	ID           string
	Config       AnalysisConfig
	Status       AnalysisStatus
	Anomalies    []Anomaly
	Statistics   AnalysisStatistics
	Summary      AnalysisSummary
	StartedAt    time.Time
	CompletedAt  time.Time
	ModuleErrors []ModuleError
	Error        string
}

// Progress is reported incrementally during a run, scaled 0-100 across the
// whole analysis.
type Progress struct {
	Stage            string
	CompletedModules int
	TotalModules     int
	CurrentModule    string
	Percent          float64
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Progress)
