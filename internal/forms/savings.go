package forms

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/model"
)

// MinInitialDeposit is the smallest deposit that opens an account.
var MinInitialDeposit = decimal.NewFromInt(1000)

// SavingsAccount is the open-an-account form.
type SavingsAccount struct {
	AccountType    model.AccountType
	InitialDeposit decimal.Decimal
}

// Validate checks the product and the minimum opening deposit.
func (s *SavingsAccount) Validate() error {
	if !s.AccountType.Valid() {
		return invalid("accountType", "Unknown account type %q", s.AccountType)
	}
	if s.InitialDeposit.LessThan(MinInitialDeposit) {
		return invalid("initialDeposit", "Minimum initial deposit is ₦1,000")
	}
	return nil
}

// Request builds the POST /savings body.
func (s *SavingsAccount) Request() model.NewAccountRequest {
	return model.NewAccountRequest{AccountType: s.AccountType, InitialDeposit: s.InitialDeposit}
}

// Transaction is the deposit/withdrawal form.
type Transaction struct {
	Type        model.TransactionType
	Amount      decimal.Decimal
	Description string
}

// ValidateAgainst checks the form against the account's mirrored balance.
// The balance check is a courtesy; the backend enforces it for real.
func (t *Transaction) ValidateAgainst(balance decimal.Decimal) error {
	if !t.Type.Valid() {
		return invalid("type", "Unknown transaction type %q", t.Type)
	}
	if t.Type == model.TxnWithdrawal && t.Amount.GreaterThan(balance) {
		return invalid("amount", "Insufficient balance")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", "Amount must be greater than zero")
	}
	return nil
}

// Request builds the POST /savings/:id/transactions body, filling in the
// default description.
func (t *Transaction) Request() model.TransactionRequest {
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		desc = "Cash deposit"
		if t.Type == model.TxnWithdrawal {
			desc = "Cash withdrawal"
		}
	}
	return model.TransactionRequest{Type: t.Type, Amount: t.Amount, Description: desc}
}
