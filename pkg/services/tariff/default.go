package tariff

import (
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
)

// Standard fee codes used across CEMAC/UEMOA bank schedules.
const (
	FeeAccountKeeping   = "TENUE_COMPTE"
	FeeTransferLocal    = "VIREMENT_LOCAL"
	FeeTransferRegional = "VIREMENT_UEMOA"
	FeeCardAnnual       = "CARTE_ANNUELLE"
	FeeCheckbook        = "CHEQUIER"
	FeeStatement        = "RELEVE_COMPTE"
	FeeSMSAlert         = "ALERTE_SMS"
	FeePackage          = "PACKAGE_MENSUEL"
	FeeClosure          = "CLOTURE_COMPTE"
	FeeCashWithdrawal   = "RETRAIT_ESPECES"
)

// DefaultGrid returns a conservative hard-coded CEMAC schedule used as the
// last fallback when a bank exposes no usable conditions at all.
func DefaultGrid(bankCode string) domain.ConditionGrid {
	return domain.ConditionGrid{
		ID:            "default-cemac",
		BankCode:      bankCode,
		Name:          "Conditions standard CEMAC",
		Version:       "1.0",
		EffectiveDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        domain.GridActive,
		Fees: []domain.FeeCondition{
			{Code: FeeAccountKeeping, Name: "Frais de tenue de compte", Amount: 5000, Basis: domain.FeeBasisFixed},
			{Code: FeeTransferLocal, Name: "Virement local", Amount: 2500, Basis: domain.FeeBasisFixed},
			{Code: FeeTransferRegional, Name: "Virement UEMOA/CEMAC", Rate: 0.001, Basis: domain.FeeBasisPercentage},
			{Code: FeeCardAnnual, Name: "Cotisation carte", Amount: 10000, Basis: domain.FeeBasisFixed},
			{Code: FeeCheckbook, Name: "Delivrance chequier", Amount: 5000, Basis: domain.FeeBasisFixed},
			{Code: FeeStatement, Name: "Releve de compte", Amount: 1000, Basis: domain.FeeBasisFixed},
			{Code: FeeSMSAlert, Name: "Alerte SMS", Amount: 500, Basis: domain.FeeBasisFixed},
			{Code: FeePackage, Name: "Package mensuel", Amount: 15000, Basis: domain.FeeBasisFixed},
			{Code: FeeClosure, Name: "Cloture de compte", Amount: 0, Basis: domain.FeeBasisFixed},
			{Code: FeeCashWithdrawal, Name: "Retrait especes au guichet", Amount: 0, Basis: domain.FeeBasisFixed},
		},
		Interests: []domain.InterestCondition{
			{Type: domain.InterestOverdraft, AnnualRate: 0.12, Method: domain.InterestSimple, DayCount: domain.DayCountAct360},
			{Type: domain.InterestUnauthorizedOverdraft, AnnualRate: 0.16, Method: domain.InterestSimple, DayCount: domain.DayCountAct360},
			{Type: domain.InterestCommitment, AnnualRate: 0.01, Method: domain.InterestSimple, DayCount: domain.DayCountAct360},
		},
	}
}
