// Package calc holds the client-side estimates shown before submission:
// loan amortization, rate tables, password strength and currency display.
// The backend stays authoritative for every figure stored on a record.
package calc

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// ratePrecision bounds intermediate growth-factor digits.
const ratePrecision = 20

// Quote is the repayment estimate for a fixed-payment loan.
type Quote struct {
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
}

// Amortize computes the fixed monthly payment
//
//	payment = P·r·(1+r)^n / ((1+r)^n − 1),  r = annualRate/100/12
//
// rounded up to the kobo, so payment×n never falls below the principal.
// A non-positive principal or duration yields a zero quote; a zero rate
// spreads the principal evenly.
func Amortize(principal decimal.Decimal, months int, annualRate decimal.Decimal) Quote {
	if !principal.IsPositive() || months <= 0 || annualRate.IsNegative() {
		return Quote{MonthlyPayment: decimal.Zero, TotalPayment: decimal.Zero, TotalInterest: decimal.Zero}
	}

	n := decimal.NewFromInt(int64(months))
	var payment decimal.Decimal
	if annualRate.IsZero() {
		payment = principal.DivRound(n, ratePrecision)
	} else {
		r := MonthlyRate(annualRate)
		growth := compound(r, months)
		payment = principal.Mul(r).Mul(growth).DivRound(growth.Sub(one), ratePrecision)
	}
	payment = payment.RoundCeil(2)

	total := payment.Mul(n)
	return Quote{
		MonthlyPayment: payment,
		TotalPayment:   total,
		TotalInterest:  total.Sub(principal),
	}
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(hundred, ratePrecision).DivRound(twelve, ratePrecision)
}

// compound returns (1+r)^n.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	base := one.Add(r)
	growth := one
	for i := 0; i < n; i++ {
		growth = growth.Mul(base).Round(ratePrecision)
	}
	return growth
}

// Installment is one row of a repayment schedule.
type Installment struct {
	Month     int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Remaining decimal.Decimal
}

// Schedule breaks a quote down month by month. Interest accrues on the
// outstanding balance; the final installment settles whatever remains so the
// schedule always closes at zero.
func Schedule(principal decimal.Decimal, months int, annualRate decimal.Decimal) []Installment {
	q := Amortize(principal, months, annualRate)
	if q.MonthlyPayment.IsZero() {
		return nil
	}

	r := MonthlyRate(annualRate)
	remaining := principal
	rows := make([]Installment, 0, months)
	for m := 1; m <= months; m++ {
		interest := remaining.Mul(r).Round(2)
		payment := q.MonthlyPayment
		if m == months || payment.Sub(interest).GreaterThan(remaining) {
			payment = remaining.Add(interest)
		}
		toPrincipal := payment.Sub(interest)
		remaining = remaining.Sub(toPrincipal)
		rows = append(rows, Installment{
			Month:     m,
			Payment:   payment,
			Interest:  interest,
			Principal: toPrincipal,
			Remaining: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return rows
}
