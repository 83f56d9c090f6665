package domain

import "time"

type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionFee        TransactionType = "fee"
	TransactionInterest   TransactionType = "interest"
	TransactionTransfer   TransactionType = "transfer"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionDeposit    TransactionType = "deposit"
	TransactionUnknown    TransactionType = "unknown"
)

// Transaction is one normalized statement line. It is produced by the
// statement-import subsystem and never mutated by the engine.
type Transaction struct {
	ID            string
	Date          time.Time
	ValueDate     *time.Time
	Description   string
	Amount        float64 // signed FCFA, debits negative
	Balance       float64
	Type          TransactionType
	ClientID      string
	BankCode      string
	Reference     string
	AccountNumber string
}

// IsCharge reports whether the transaction is a debit the bank initiated
// (fees and interest), as opposed to a client-initiated movement.
func (t Transaction) IsCharge() bool {
	return t.Amount < 0 && (t.Type == TransactionFee || t.Type == TransactionInterest)
}
