package calc

import (
	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/model"
)

// LoanRate returns the advertised annual percentage rate for a loan product.
// Unknown products return zero.
func LoanRate(t model.LoanType) decimal.Decimal {
	switch t {
	case model.LoanPersonal:
		return decimal.NewFromInt(18)
	case model.LoanMortgage:
		return decimal.NewFromInt(12)
	case model.LoanBusiness:
		return decimal.NewFromInt(15)
	case model.LoanAuto:
		return decimal.NewFromInt(14)
	}
	return decimal.Zero
}

// SavingsRate returns the advertised annual rate for a savings product.
func SavingsRate(t model.AccountType) decimal.Decimal {
	switch t {
	case model.AccountSavings:
		return decimal.RequireFromString("4.5")
	case model.AccountFixed:
		return decimal.RequireFromString("8.5")
	}
	return decimal.Zero
}

// EffectiveLoanRate prefers the rate stored on the record over the table.
func EffectiveLoanRate(l model.LoanApplication) decimal.Decimal {
	if l.InterestRate != nil {
		return *l.InterestRate
	}
	return LoanRate(l.LoanType)
}

// EffectiveMonthlyPayment prefers the backend-computed payment; otherwise it
// estimates one from the loan's terms.
func EffectiveMonthlyPayment(l model.LoanApplication) decimal.Decimal {
	if l.MonthlyPayment != nil {
		return *l.MonthlyPayment
	}
	return Amortize(l.Amount, l.Duration, EffectiveLoanRate(l)).MonthlyPayment
}
