package export

import (
	"bytes"
	"testing"

	"github.com/audit-tools/fee-atlas/pkg/models/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	report := &api.AnalysisReport{
		Id:   "run-1",
		Mode: "algorithmic",
		Anomalies: []api.Anomaly{{
			Type:        "duplicate_fee",
			Severity:    api.SeverityHigh,
			Amount:      15000,
			Description: "Frais preleve deux fois",
		}},
		Statistics: api.Statistics{
			TotalTransactions: 42,
			TotalAnomalies:    1,
			PotentialSavings:  15000,
		},
		Summary: api.Summary{
			Status:      "WARNING",
			KeyFindings: []string{"[high] Frais preleve deux fois (15000 FCFA)"},
		},
	}

	require.NoError(t, reporter.Handle(report))
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "duplicate_fee")
	assert.Contains(t, out, "15000")
	assert.Contains(t, out, "Key findings")
}

func TestReporter_TruncatesLongDescriptions(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	report := &api.AnalysisReport{
		Anomalies: []api.Anomaly{{Type: "ghost_fee", Description: string(long)}},
	}

	require.NoError(t, reporter.Handle(report))
	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), string(long))
}
