package forms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agmortgage/agbank/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validRegistration() *Registration {
	return &Registration{
		Profile: model.Profile{
			Email:         "a@b.com",
			FirstName:     "Ada",
			LastName:      "Obi",
			PhoneNumber:   "08030000000",
			DateOfBirth:   "1990-04-01",
			Gender:        model.GenderFemale,
			MaritalStatus: model.MaritalSingle,
			Occupation:    "Engineer",
			Employer:      "Acme",
			MonthlyIncome: dec("350000"),
			Address:       model.Address{Street: "1 Marina", City: "Lagos", State: "Lagos", Country: "Nigeria"},
			NextOfKin:     model.NextOfKin{Name: "Chi Obi", Relationship: "Sister", PhoneNumber: "08031111111"},
			BankVerificationNumber: "22222222222",
		},
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
	}
}

func TestRegistration_Valid(t *testing.T) {
	require.NoError(t, validRegistration().Validate())
}

func TestRegistration_Steps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Registration)
		step   int
		want   string
	}{
		{"missing email", func(r *Registration) { r.Email = " " }, 1, "Please fill in all required fields"},
		{"missing password", func(r *Registration) { r.ConfirmPassword = "" }, 1, "Please create a password"},
		{"weak password", func(r *Registration) { r.Password, r.ConfirmPassword = "secret", "secret" }, 1, "Password must be at least 8 characters long"},
		{"mismatch", func(r *Registration) { r.ConfirmPassword = "Secret2!" }, 1, "Passwords do not match"},
		{"address", func(r *Registration) { r.Address.City = "" }, 2, "Please complete address information"},
		{"income", func(r *Registration) { r.MonthlyIncome = decimal.Zero }, 3, "Please complete employment information"},
		{"employer", func(r *Registration) { r.Employer = "" }, 3, "Please complete employment information"},
		{"bvn", func(r *Registration) { r.BankVerificationNumber = "" }, 4, "Please complete all verification fields"},
	}
	for _, tt := range tests {
		r := validRegistration()
		tt.mutate(r)

		err := r.ValidateStep(tt.step)
		require.Error(t, err, tt.name)
		assert.Equal(t, tt.want, err.Error(), tt.name)
		assert.True(t, IsValidation(err), tt.name)

		err = r.Validate()
		require.Error(t, err, tt.name)
		assert.Equal(t, tt.want, err.Error(), tt.name)
	}
}

func TestRegistration_RequestDropsConfirmation(t *testing.T) {
	req := validRegistration().Request()
	assert.Equal(t, "Secret1!", req.Password)
	assert.Equal(t, "a@b.com", req.Email)
}

func TestLoadRegistration(t *testing.T) {
	profile := `email: a@b.com
first_name: Ada
last_name: Obi
phone_number: "08030000000"
date_of_birth: "1990-04-01"
gender: female
marital_status: single
occupation: Engineer
employer: Acme
monthly_income: 350000
address:
  street: 1 Marina
  city: Lagos
  state: Lagos
next_of_kin:
  name: Chi Obi
  relationship: Sister
  phone_number: "08031111111"
bank_verification_number: "22222222222"
password: Secret1!
confirm_password: Secret1!
`
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o600))

	r, err := LoadRegistration(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada", r.FirstName)
	assert.Equal(t, "Lagos", r.Address.City)
	assert.Equal(t, "350000", r.MonthlyIncome.String())
	assert.Equal(t, "Secret1!", r.ConfirmPassword)
	assert.NoError(t, r.Validate())
}

func TestLoadRegistration_NotFound(t *testing.T) {
	_, err := LoadRegistration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func validLoan() *Loan {
	return &Loan{
		Amount:    dec("500000"),
		LoanType:  model.LoanPersonal,
		Purpose:   "School fees",
		Duration:  12,
		Guarantor: model.Guarantor{Name: "Chi Obi", PhoneNumber: "08031111111", Relationship: "Sister"},
	}
}

func TestLoan_Request(t *testing.T) {
	req, err := validLoan().Request(dec("350000"))
	require.NoError(t, err)
	assert.Equal(t, "18", req.InterestRate.String())
	assert.Equal(t, "45840.00", req.MonthlyPayment.StringFixed(2))
	assert.Equal(t, "350000", req.MonthlyIncome.String())
	assert.Empty(t, req.Collateral)
}

func TestLoan_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Loan)
		want   string
	}{
		{"missing purpose", func(l *Loan) { l.Purpose = "" }, "Please fill in all required fields"},
		{"missing duration", func(l *Loan) { l.Duration = 0 }, "Please fill in all required fields"},
		{"too small", func(l *Loan) { l.Amount = dec("49999.99") }, "Loan amount must be between ₦50,000.00 and ₦50,000,000.00"},
		{"too large", func(l *Loan) { l.Amount = dec("50000000.01") }, "Loan amount must be between ₦50,000.00 and ₦50,000,000.00"},
		{"odd duration", func(l *Loan) { l.Duration = 7 }, "Duration must be one of 6, 12, 18, 24, 36, 48, 60 months"},
		{"guarantor", func(l *Loan) { l.Guarantor.Relationship = "" }, "Please complete guarantor information"},
		{"type", func(l *Loan) { l.LoanType = "payday" }, `Unknown loan type "payday"`},
	}
	for _, tt := range tests {
		l := validLoan()
		tt.mutate(l)
		_, err := l.Request(decimal.Zero)
		require.Error(t, err, tt.name)
		assert.Equal(t, tt.want, err.Error(), tt.name)
	}
}

func TestReview_Validate(t *testing.T) {
	assert.NoError(t, (&Review{Decision: model.LoanApproved}).Validate())
	assert.NoError(t, (&Review{Decision: model.LoanRejected, Reason: "Insufficient income"}).Validate())
	assert.Error(t, (&Review{Decision: model.LoanRejected}).Validate())
	assert.Error(t, (&Review{Decision: model.LoanPending}).Validate())
}

func TestSavingsAccount_Validate(t *testing.T) {
	err := (&SavingsAccount{AccountType: model.AccountSavings, InitialDeposit: dec("500")}).Validate()
	require.Error(t, err)
	assert.Equal(t, "Minimum initial deposit is ₦1,000", err.Error())

	assert.NoError(t, (&SavingsAccount{AccountType: model.AccountSavings, InitialDeposit: dec("1000")}).Validate())
	assert.Error(t, (&SavingsAccount{AccountType: "current", InitialDeposit: dec("1000")}).Validate())
}

func TestTransaction_ValidateAgainst(t *testing.T) {
	balance := dec("1500")
	tests := []struct {
		name string
		txn  Transaction
		want string
	}{
		{"withdraw over balance", Transaction{Type: model.TxnWithdrawal, Amount: dec("1500.01")}, "Insufficient balance"},
		{"zero", Transaction{Type: model.TxnDeposit, Amount: decimal.Zero}, "Amount must be greater than zero"},
		{"negative", Transaction{Type: model.TxnDeposit, Amount: dec("-5")}, "Amount must be greater than zero"},
		{"type", Transaction{Type: "transfer", Amount: dec("5")}, `Unknown transaction type "transfer"`},
	}
	for _, tt := range tests {
		err := tt.txn.ValidateAgainst(balance)
		require.Error(t, err, tt.name)
		assert.Equal(t, tt.want, err.Error(), tt.name)
	}

	ok := Transaction{Type: model.TxnWithdrawal, Amount: dec("1500")}
	assert.NoError(t, ok.ValidateAgainst(balance))
	big := Transaction{Type: model.TxnDeposit, Amount: dec("9999999")}
	assert.NoError(t, big.ValidateAgainst(balance))
}

func TestTransaction_DefaultDescription(t *testing.T) {
	dep := Transaction{Type: model.TxnDeposit, Amount: dec("10")}
	assert.Equal(t, "Cash deposit", dep.Request().Description)

	wd := Transaction{Type: model.TxnWithdrawal, Amount: dec("10")}
	assert.Equal(t, "Cash withdrawal", wd.Request().Description)

	custom := Transaction{Type: model.TxnDeposit, Amount: dec("10"), Description: " Salary "}
	assert.Equal(t, "Salary", custom.Request().Description)
}
