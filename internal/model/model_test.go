package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agmortgage/agbank/internal/id"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`1500.50`, "1500.5"},
		{`"2500"`, "2500"},
		{`" 10.25 "`, "10.25"},
		{`null`, "0"},
		{``, "0"},
		{`"abc"`, "0"},
		{`""`, "0"},
		{`true`, "0"},
	}
	for _, tt := range tests {
		got := ParseAmount(json.RawMessage(tt.raw))
		assert.Equal(t, tt.want, got.String(), "ParseAmount(%q)", tt.raw)
	}
}

func TestSavingsAccount_LenientDecode(t *testing.T) {
	data := `[
		{"id": 1, "userId": 7, "accountNumber": "2001", "balance": "1200.75", "accountType": "savings", "interestRate": 4.5},
		{"id": "2", "userId": "7", "accountNumber": "2002", "accountType": "fixed"},
		{"id": "3", "userId": "8", "accountNumber": "2003", "balance": "n/a", "accountType": "savings"}
	]`
	var accts []SavingsAccount
	require.NoError(t, json.Unmarshal([]byte(data), &accts))
	require.Len(t, accts, 3)

	assert.Equal(t, id.ID("1"), accts[0].ID)
	assert.Equal(t, id.ID("7"), accts[0].UserID)
	assert.Equal(t, "1200.75", accts[0].Balance.StringFixed(2))
	assert.Equal(t, "4.5", accts[0].InterestRate.String())
	assert.True(t, accts[1].Balance.IsZero())
	assert.True(t, accts[2].Balance.IsZero())
	assert.Equal(t, accts[0].UserID, accts[1].UserID)
}

func TestTransaction_Decode(t *testing.T) {
	data := `{"id": "t1", "type": "withdrawal", "amount": "300", "description": "ATM", "date": "2025-01-15T10:00:00Z", "balance": 700}`
	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(data), &txn))
	assert.Equal(t, TxnWithdrawal, txn.Type)
	assert.False(t, txn.Type.IsCredit())
	assert.Equal(t, "300", txn.Amount.String())
	assert.Equal(t, "700", txn.Balance.String())
	assert.Equal(t, 15, txn.Date.Day())
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(NewAccountRequest{AccountType: AccountFixed, InitialDeposit: ParseAmount(json.RawMessage(`1000`))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"accountType": "fixed", "initialDeposit": 1000}`, string(data))
}

func TestLoanStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to LoanStatus
		want     bool
	}{
		{LoanPending, LoanApproved, true},
		{LoanPending, LoanRejected, true},
		{LoanPending, LoanDisbursed, false},
		{LoanApproved, LoanDisbursed, true},
		{LoanApproved, LoanRejected, false},
		{LoanRejected, LoanApproved, false},
		{LoanDisbursed, LoanPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestUserEmbedsProfile(t *testing.T) {
	data := `{"id": 5, "email": "a@b.com", "firstName": "Ada", "lastName": "Obi", "role": "admin", "isActive": true, "address": {"city": "Lagos"}}`
	var u User
	require.NoError(t, json.Unmarshal([]byte(data), &u))
	assert.Equal(t, id.ID("5"), u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "Lagos", u.Address.City)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Ada Obi", u.FullName())
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string // RFC 3339, empty for the zero time
	}{
		{`"2025-01-15T10:00:00Z"`, "2025-01-15T10:00:00Z"},
		{`"2025-01-15T10:00:00.123+01:00"`, "2025-01-15T10:00:00+01:00"},
		{`"2025-01-15T10:00:00"`, "2025-01-15T10:00:00Z"},
		{`"2025-01-15 10:00:00"`, "2025-01-15T10:00:00Z"},
		{`" 2025-01-15 "`, "2025-01-15T00:00:00Z"},
		{`""`, ""},
		{`"yesterday"`, ""},
		{`null`, ""},
		{``, ""},
		{`1736935200000`, ""},
	}
	for _, tt := range tests {
		got := ParseTime(json.RawMessage(tt.raw))
		if tt.want == "" {
			assert.True(t, got.IsZero(), "ParseTime(%q) = %v", tt.raw, got)
			continue
		}
		assert.Equal(t, tt.want, got.Format(time.RFC3339), "ParseTime(%q)", tt.raw)
	}
}

func TestLenientTimestamps(t *testing.T) {
	accounts := `[
		{"id": "1", "userId": "7", "balance": 1000, "accountType": "savings", "createdAt": "2025-01-15T10:00:00Z",
		 "transactions": [{"id": "t1", "type": "deposit", "amount": 1000, "date": "not a date", "balance": 1000}]},
		{"id": "2", "userId": "7", "balance": 500, "accountType": "savings", "createdAt": ""}
	]`
	var accts []SavingsAccount
	require.NoError(t, json.Unmarshal([]byte(accounts), &accts))
	require.Len(t, accts, 2)
	assert.Equal(t, 2025, accts[0].CreatedAt.Year())
	assert.True(t, accts[0].Transactions[0].Date.IsZero())
	assert.True(t, accts[1].CreatedAt.IsZero())
	assert.Equal(t, "500", accts[1].Balance.String())

	loans := `[
		{"id": 1, "userId": 7, "amount": "500000", "status": "approved", "appliedAt": "15/01/2025",
		 "reviewedAt": "", "interestRate": 18, "monthlyPayment": null},
		{"id": 2, "userId": 7, "amount": 75000, "status": "pending", "appliedAt": "2025-02-01T09:00:00Z"}
	]`
	var ls []LoanApplication
	require.NoError(t, json.Unmarshal([]byte(loans), &ls))
	require.Len(t, ls, 2)
	assert.True(t, ls[0].AppliedAt.IsZero())
	assert.Nil(t, ls[0].ReviewedAt)
	require.NotNil(t, ls[0].InterestRate)
	assert.Equal(t, "18", ls[0].InterestRate.String())
	assert.Nil(t, ls[0].MonthlyPayment)
	assert.Equal(t, "500000", ls[0].Amount.String())
	assert.Equal(t, time.February, ls[1].AppliedAt.Month())
	assert.Nil(t, ls[1].InterestRate)

	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id": 5, "email": "a@b.com", "createdAt": "", "monthlyIncome": "n/a"}`), &u))
	assert.True(t, u.CreatedAt.IsZero())
	assert.True(t, u.MonthlyIncome.IsZero())
	assert.Equal(t, "a@b.com", u.Email)
}

func TestUser_RoundTrip(t *testing.T) {
	in := User{ID: "5", Profile: Profile{Email: "a@b.com", MonthlyIncome: ParseAmount(json.RawMessage(`350000`))},
		Role: RoleUser, CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), IsActive: true}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out User
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, "350000", out.MonthlyIncome.String())
	assert.Equal(t, in.Email, out.Email)
}
