package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
)

// AccountType is the savings product an account was opened under.
type AccountType string

const (
	AccountSavings AccountType = "savings"
	AccountFixed   AccountType = "fixed"
)

// Valid reports whether t is a known savings product.
func (t AccountType) Valid() bool {
	return t == AccountSavings || t == AccountFixed
}

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TxnDeposit    TransactionType = "deposit"    // credit
	TxnWithdrawal TransactionType = "withdrawal" // debit
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TxnDeposit || t == TxnWithdrawal
}

// IsCredit reports whether the entry adds to the balance.
func (t TransactionType) IsCredit() bool { return t == TxnDeposit }

// Transaction is an immutable ledger entry on a savings account. Balance is
// the account balance after the entry was applied.
type Transaction struct {
	ID          id.ID           `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Balance     decimal.Decimal `json:"balance"`
}

// UnmarshalJSON coerces amount, balance and date leniently.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		*alias
		Amount  json.RawMessage `json:"amount"`
		Balance json.RawMessage `json:"balance"`
		Date    json.RawMessage `json:"date"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decoding transaction: %w", err)
	}
	t.Amount = ParseAmount(aux.Amount)
	t.Balance = ParseAmount(aux.Balance)
	t.Date = ParseTime(aux.Date)
	return nil
}

// SavingsAccount mirrors a backend savings account and its ledger.
type SavingsAccount struct {
	ID            id.ID           `json:"id"`
	UserID        id.ID           `json:"userId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"accountType"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	CreatedAt     time.Time       `json:"createdAt"`
	Transactions  []Transaction   `json:"transactions"`
}

// UnmarshalJSON coerces the balance leniently: missing, null or non-numeric
// balances decode as zero instead of failing the whole collection. An
// unreadable createdAt is the zero time for the same reason.
func (a *SavingsAccount) UnmarshalJSON(data []byte) error {
	type alias SavingsAccount
	aux := struct {
		*alias
		Balance      json.RawMessage `json:"balance"`
		InterestRate json.RawMessage `json:"interestRate"`
		CreatedAt    json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decoding savings account: %w", err)
	}
	a.Balance = ParseAmount(aux.Balance)
	a.InterestRate = ParseAmount(aux.InterestRate)
	a.CreatedAt = ParseTime(aux.CreatedAt)
	return nil
}

// NewAccountRequest is the body of POST /savings.
type NewAccountRequest struct {
	AccountType    AccountType     `json:"accountType"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
}

// TransactionRequest is the body of POST /savings/:id/transactions.
type TransactionRequest struct {
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}
