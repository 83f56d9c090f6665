package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a scripted Provider for orchestrator tests.
type stubProvider struct {
	name   string
	detect func(moduleID string, batch []domain.Transaction) (DetectionResponse, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) CategorizeTransactions(context.Context, []domain.Transaction) ([]CategorizedTransaction, error) {
	return nil, nil
}

func (s *stubProvider) AnalyzeFraud(context.Context, []domain.Transaction) (FraudAssessment, error) {
	return FraudAssessment{}, nil
}

func (s *stubProvider) GenerateReport(context.Context, domain.AnalysisResult) (string, error) {
	return "", nil
}

func (s *stubProvider) Chat(context.Context, string) (string, error) { return "", nil }

func (s *stubProvider) TestConnection(context.Context) ConnectionStatus {
	return ConnectionStatus{Valid: true}
}

func (s *stubProvider) Detect(_ context.Context, moduleID string, batch []domain.Transaction) (DetectionResponse, error) {
	return s.detect(moduleID, batch)
}

func statement(n int) []domain.Transaction {
	txs := make([]domain.Transaction, n)
	for i := range txs {
		txs[i] = domain.Transaction{
			ID:     fmt.Sprintf("tx-%03d", i),
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Amount: -1000,
			Type:   domain.TransactionFee,
		}
	}
	return txs
}

func finding(txID string) DetectionFinding {
	return DetectionFinding{
		Type:           "ghost_fee",
		Severity:       "high",
		Amount:         5000,
		Description:    "frais sans service",
		Confidence:     0.8,
		TransactionIDs: []string{txID},
		Reasoning:      "aucune operation correspondante",
	}
}

func newTestRouter(t *testing.T, p Provider) *Router {
	t.Helper()
	r, err := NewRouter(p, p, p)
	require.NoError(t, err)
	return r
}

func TestRunDetections(t *testing.T) {
	ctx := context.Background()

	t.Run("one module timeout does not block the others", func(t *testing.T) {
		p := &stubProvider{name: "stub", detect: func(moduleID string, batch []domain.Transaction) (DetectionResponse, error) {
			if moduleID == "aml" {
				return DetectionResponse{}, errors.New("request timeout")
			}
			return DetectionResponse{Findings: []DetectionFinding{finding(batch[0].ID)}, TokensUsed: 10}, nil
		}}
		o := NewOrchestrator(newTestRouter(t, p))

		res := o.RunDetections(ctx, statement(10), []string{"ghost_fees", "aml", "duplicates"}, OrchestratorOptions{})
		assert.True(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "aml", res.Errors[0].Module)
		assert.Len(t, res.AllAnomalies, 2, "other modules still contribute")
		assert.Equal(t, 20, res.TokensUsed)
	})

	t.Run("all modules failing is not a success", func(t *testing.T) {
		p := &stubProvider{name: "stub", detect: func(string, []domain.Transaction) (DetectionResponse, error) {
			return DetectionResponse{}, errors.New("auth failure")
		}}
		o := NewOrchestrator(newTestRouter(t, p))
		res := o.RunDetections(ctx, statement(3), []string{"ghost_fees", "aml"}, OrchestratorOptions{})
		assert.False(t, res.Success)
		assert.Len(t, res.Errors, 2)
	})

	t.Run("malformed payload degrades to a low-confidence anomaly", func(t *testing.T) {
		p := &stubProvider{name: "stub", detect: func(string, []domain.Transaction) (DetectionResponse, error) {
			_, err := parseDetectionContent("not json at all")
			return DetectionResponse{}, err
		}}
		o := NewOrchestrator(newTestRouter(t, p))
		res := o.RunDetections(ctx, statement(5), []string{"ghost_fees"}, OrchestratorOptions{})
		assert.True(t, res.Success)
		assert.Empty(t, res.Errors)
		require.Len(t, res.AllAnomalies, 1)
		a := res.AllAnomalies[0]
		assert.Equal(t, domain.AnomalySuspiciousPattern, a.Type)
		assert.InDelta(t, 0.3, a.Confidence, 0.001)
		assert.Len(t, a.Transactions, 5)
	})

	t.Run("batching splits the statement", func(t *testing.T) {
		var batchSizes []int
		p := &stubProvider{name: "stub", detect: func(_ string, batch []domain.Transaction) (DetectionResponse, error) {
			batchSizes = append(batchSizes, len(batch))
			return DetectionResponse{}, nil
		}}
		o := NewOrchestrator(newTestRouter(t, p))
		res := o.RunDetections(ctx, statement(120), []string{"duplicates"}, OrchestratorOptions{Concurrency: 1})
		assert.True(t, res.Success)
		assert.ElementsMatch(t, []int{50, 50, 20}, batchSizes)
		require.Len(t, res.Results, 1)
		assert.Equal(t, 3, res.Results[0].Batches)
	})

	t.Run("progress fires per module", func(t *testing.T) {
		p := &stubProvider{name: "stub", detect: func(string, []domain.Transaction) (DetectionResponse, error) {
			return DetectionResponse{}, nil
		}}
		o := NewOrchestrator(newTestRouter(t, p))

		var events []domain.Progress
		o.RunDetections(ctx, statement(5), []string{"duplicates", "ghost_fees"}, OrchestratorOptions{
			Progress: func(p domain.Progress) { events = append(events, p) },
		})
		require.Len(t, events, 2)
		assert.Equal(t, 1, events[0].CompletedModules)
		assert.Equal(t, "duplicates", events[0].CurrentModule)
		assert.Equal(t, 2, events[1].CompletedModules)
		assert.Equal(t, 100.0, events[1].Percent)
	})

	t.Run("cancelled context returns partial results", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		calls := 0
		p := &stubProvider{name: "stub", detect: func(_ string, batch []domain.Transaction) (DetectionResponse, error) {
			calls++
			cancel() // abandon the run after the first batch
			return DetectionResponse{Findings: []DetectionFinding{finding(batch[0].ID)}}, nil
		}}
		o := NewOrchestrator(newTestRouter(t, p))
		res := o.RunDetections(cancelCtx, statement(5), []string{"duplicates", "ghost_fees", "aml"}, OrchestratorOptions{})
		assert.Equal(t, 1, calls, "no further batches awaited after cancellation")
		assert.Len(t, res.AllAnomalies, 1)
		assert.NotEmpty(t, res.Errors)
	})
}

func TestMapFinding(t *testing.T) {
	batch := statement(3)

	t.Run("known type and severity map through", func(t *testing.T) {
		a := mapFinding("ghost_fees", "stub", finding("tx-001"), batch)
		assert.Equal(t, domain.AnomalyGhostFee, a.Type)
		assert.Equal(t, domain.SeverityHigh, a.Severity)
		require.Len(t, a.Transactions, 1)
		assert.Equal(t, "tx-001", a.Transactions[0].ID)
		require.Len(t, a.Evidence, 1)
		assert.Equal(t, domain.EvidenceReason, a.Evidence[0].Type)
	})

	t.Run("unknown type falls back to module then suspicious", func(t *testing.T) {
		f := finding("tx-000")
		f.Type = "???"
		a := mapFinding("duplicates", "stub", f, batch)
		assert.Equal(t, domain.AnomalyDuplicateFee, a.Type)

		b := mapFinding("unmapped_module", "stub", f, batch)
		assert.Equal(t, domain.AnomalySuspiciousPattern, b.Type)
	})

	t.Run("confidence and amount are clamped", func(t *testing.T) {
		f := finding("tx-000")
		f.Confidence = 4.2
		f.Amount = -100
		a := mapFinding("ghost_fees", "stub", f, batch)
		assert.Equal(t, 1.0, a.Confidence)
		assert.Equal(t, 0.0, a.Amount)
	})
}
