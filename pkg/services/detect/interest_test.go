package detect

import (
	"context"
	"testing"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/audit-tools/fee-atlas/pkg/services/tariff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overdraftBank() domain.BankConditions {
	return domain.BankConditions{
		BankCode: "BICEC",
		Current: domain.ConditionGrid{
			ID:       "grid-bicec",
			BankCode: "BICEC",
			Name:     "Conditions BICEC",
			Status:   domain.GridActive,
			Interests: []domain.InterestCondition{{
				Type:       domain.InterestOverdraft,
				AnnualRate: 0.12,
				Method:     domain.InterestSimple,
				DayCount:   domain.DayCountAct360,
			}},
		},
	}
}

func TestInterestAudit(t *testing.T) {
	ctx := context.Background()
	th := domain.DefaultThresholds()
	detector := &InterestAudit{}
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := jan1.AddDate(0, 0, 30)

	t.Run("overcharged agios produce the difference", func(t *testing.T) {
		// 10M FCFA overdrawn for 30 days at 12% ACT/360 = 100,000 FCFA due.
		txs := []domain.Transaction{
			{ID: "t1", Date: jan1, Description: "VIREMENT FOURNISSEUR", Amount: -12_000_000, Balance: -10_000_000, Type: domain.TransactionDebit},
			{ID: "t2", Date: jan31, Description: "AGIOS TRIMESTRIELS", Amount: -185_000, Balance: -10_185_000, Type: domain.TransactionInterest},
		}
		anomalies, err := detector.Detect(ctx, txs, overdraftBank(), th)
		require.NoError(t, err)
		require.Len(t, anomalies, 1)

		a := anomalies[0]
		assert.Equal(t, domain.AnomalyExcessiveInterest, a.Type)
		assert.InDelta(t, 85_000, a.Amount, 1)
		require.Len(t, a.Evidence, 1)
		require.NotNil(t, a.Evidence[0].ExpectedValue)
		require.NotNil(t, a.Evidence[0].AppliedValue)
		assert.InDelta(t, 100_000, *a.Evidence[0].ExpectedValue, 1)
		assert.InDelta(t, 185_000, *a.Evidence[0].AppliedValue, 1)
	})

	t.Run("agios within tolerance pass", func(t *testing.T) {
		txs := []domain.Transaction{
			{ID: "t1", Date: jan1, Description: "VIREMENT FOURNISSEUR", Amount: -12_000_000, Balance: -10_000_000, Type: domain.TransactionDebit},
			{ID: "t2", Date: jan31, Description: "AGIOS", Amount: -101_000, Balance: -10_101_000, Type: domain.TransactionInterest},
		}
		anomalies, err := detector.Detect(ctx, txs, overdraftBank(), th)
		require.NoError(t, err)
		assert.Empty(t, anomalies)
	})

	t.Run("agios without any overdraft are fully recoverable", func(t *testing.T) {
		txs := []domain.Transaction{
			{ID: "t1", Date: jan1, Description: "VIREMENT CLIENT", Amount: 5_000_000, Balance: 8_000_000, Type: domain.TransactionCredit},
			{ID: "t2", Date: jan31, Description: "AGIOS", Amount: -45_000, Balance: 7_955_000, Type: domain.TransactionInterest},
		}
		anomalies, err := detector.Detect(ctx, txs, overdraftBank(), th)
		require.NoError(t, err)
		require.Len(t, anomalies, 1)
		assert.Equal(t, domain.AnomalyUnjustifiedAgios, anomalies[0].Type)
		assert.Equal(t, 45_000.0, anomalies[0].Amount)
	})

	t.Run("falls back to the default grid when the bank has none", func(t *testing.T) {
		txs := []domain.Transaction{
			{ID: "t1", Date: jan1, Description: "RETRAIT", Amount: -12_000_000, Balance: -10_000_000, Type: domain.TransactionWithdrawal},
			{ID: "t2", Date: jan31, Description: "AGIOS", Amount: -400_000, Balance: -10_400_000, Type: domain.TransactionInterest},
		}
		anomalies, err := detector.Detect(ctx, txs, domain.BankConditions{BankCode: "SGBC"}, th)
		require.NoError(t, err)
		require.Len(t, anomalies, 1)
		assert.Equal(t, "default-cemac", anomalies[0].Evidence[0].Source)
	})
}

func TestDays360(t *testing.T) {
	from := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 60, days360(from, to))
}

func TestDefaultGridCoversOverdraft(t *testing.T) {
	g := tariff.DefaultGrid("X")
	_, ok := g.Interest(domain.InterestOverdraft)
	assert.True(t, ok)
}
