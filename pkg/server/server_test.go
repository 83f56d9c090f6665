package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/api"
	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/analysis"
	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	registry := detect.DefaultRegistry()
	return Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Analyzer:   analysis.NewCoordinator(registry, nil),
			Catalog:    tariff.NewCatalog(),
			Registry:   registry,
			Router:     nil,
			Mode:       domain.ModeAlgorithmic,
			Thresholds: domain.DefaultThresholds(),
			Logger:     zerolog.New(zerolog.NewTestWriter(t)),
		},
	}
}

func TestNewWebAPI_ShutdownTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShutdownTimeout = 3 * time.Second
	assert.Equal(t, 3*time.Second, NewWebAPI(cfg).shutdownTimeout)

	cfg.ShutdownTimeout = 0
	assert.Equal(t, 10*time.Second, NewWebAPI(cfg).shutdownTimeout)
}

func TestWebAPI_Endpoints(t *testing.T) {
	testServer := httptest.NewServer(ConfigureRouter(testConfig(t)))
	defer testServer.Close()

	t.Run("ListDetectors", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/detectors")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var detectors []api.Detector
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detectors))
		assert.Len(t, detectors, 11)
		assert.Equal(t, "duplicates", detectors[0].Id)
	})

	t.Run("RunAnalysis", func(t *testing.T) {
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		reqBody := api.AnalysisRequest{
			ClientId: "client-1",
			BankCode: "BICEC",
			Transactions: []api.Transaction{
				{Id: "t1", Date: day, Description: "FRAIS DE TENUE DE COMPTE", Amount: -15000, Balance: 985_000, Type: "fee"},
				{Id: "t2", Date: day.AddDate(0, 0, 1), Description: "FRAIS DE TENUE DE COMPTE", Amount: -15000, Balance: 970_000, Type: "fee"},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(reqBody))

		resp, err := http.Post(testServer.URL+"/api/v1/analyses", "application/json", &buf)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var report api.AnalysisReport
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

		assert.Equal(t, string(domain.AnalysisCompleted), report.Status)
		assert.Equal(t, 2, report.Statistics.TotalTransactions)
		require.NotEmpty(t, report.Anomalies)
		found := false
		for _, a := range report.Anomalies {
			if a.Type == string(domain.AnomalyDuplicateFee) {
				found = true
				assert.Equal(t, 15000.0, a.Amount)
			}
		}
		assert.True(t, found, "expected a duplicate fee anomaly")
	})

	t.Run("RunAnalysis_EmptyStatement", func(t *testing.T) {
		body := bytes.NewBufferString(`{"client_id":"c1","bank_code":"BICEC","transactions":[]}`)
		resp, err := http.Post(testServer.URL+"/api/v1/analyses", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("EstimateCost_NoProvider", func(t *testing.T) {
		body := bytes.NewBufferString(`{"transaction_count":100}`)
		resp, err := http.Post(testServer.URL+"/api/v1/ai/estimate", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
