package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a ledger entry
type TransactionKind string

const (
	TransactionCredit TransactionKind = "Credit"
	TransactionDebit  TransactionKind = "Debit"
)

// TransactionStatus is the processing status of a ledger entry
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
	TransactionPending   TransactionStatus = "Pending"
	TransactionFlagged   TransactionStatus = "Flagged"
)

// BalanceViewDescription tags the zero-amount entry appended on every balance check
const BalanceViewDescription = "Security Verification: Vault Value Checked"

// Transaction is an immutable ledger entry.
// The sign of the movement is given by Kind, Amount is never negative.
type Transaction struct {
	ID          int               `json:"id"`
	UserID      int               `json:"userId"`
	Kind        TransactionKind   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// MarshalJSON renders Amount as a JSON number
func (t Transaction) MarshalJSON() ([]byte, error) {
	type transaction Transaction
	return json.Marshal(struct {
		transaction
		Amount json.Number `json:"amount"`
	}{transaction(t), moneyNumber(t.Amount)})
}

// BalanceResponse represents the balance returned by a balance check
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// MarshalJSON renders Balance as a JSON number
func (b BalanceResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Balance json.Number `json:"balance"`
	}{moneyNumber(b.Balance)})
}

// moneyNumber converts d to a JSON number literal without touching
// the package-wide decimal.MarshalJSONWithoutQuotes switch
func moneyNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// OpeningTransactions returns the ledger entries seeded for a new account
func OpeningTransactions(userID int, openingBalance decimal.Decimal) []*Transaction {
	return []*Transaction{
		{
			UserID:      userID,
			Kind:        TransactionCredit,
			Amount:      openingBalance,
			Description: "Initial Deposit",
			Status:      TransactionCompleted,
		},
		{
			UserID:      userID,
			Kind:        TransactionDebit,
			Amount:      decimal.RequireFromString("500.00"),
			Description: "Premium Membership Fee",
			Status:      TransactionCompleted,
		},
		{
			UserID:      userID,
			Kind:        TransactionCredit,
			Amount:      decimal.RequireFromString("1200.50"),
			Description: "Dividend Payout",
			Status:      TransactionCompleted,
		},
	}
}
