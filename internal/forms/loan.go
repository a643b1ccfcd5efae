package forms

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/model"
)

var (
	// MinLoanAmount and MaxLoanAmount bound a single application.
	MinLoanAmount = decimal.NewFromInt(50_000)
	MaxLoanAmount = decimal.NewFromInt(50_000_000)
)

// LoanDurations lists the repayment terms on offer, in months.
var LoanDurations = []int{6, 12, 18, 24, 36, 48, 60}

// Loan is the loan application form.
type Loan struct {
	Amount     decimal.Decimal
	LoanType   model.LoanType
	Purpose    string
	Duration   int
	Collateral string
	Guarantor  model.Guarantor
}

// Validate checks required fields, bounds and the guarantor.
func (l *Loan) Validate() error {
	if l.Amount.IsZero() || blank(l.Purpose) || l.Duration == 0 {
		return invalid("loan", "Please fill in all required fields")
	}
	if !l.LoanType.Valid() {
		return invalid("loanType", "Unknown loan type %q", l.LoanType)
	}
	if l.Amount.LessThan(MinLoanAmount) || l.Amount.GreaterThan(MaxLoanAmount) {
		return invalid("amount", "Loan amount must be between %s and %s",
			calc.FormatNaira(MinLoanAmount), calc.FormatNaira(MaxLoanAmount))
	}
	if !slices.Contains(LoanDurations, l.Duration) {
		return invalid("duration", "Duration must be one of %s months", joinInts(LoanDurations))
	}
	if anyBlank(l.Guarantor.Name, l.Guarantor.PhoneNumber, l.Guarantor.Relationship) {
		return invalid("guarantor", "Please complete guarantor information")
	}
	return nil
}

// Quote estimates the repayment for the form as filled in.
func (l *Loan) Quote() calc.Quote {
	return calc.Amortize(l.Amount, l.Duration, calc.LoanRate(l.LoanType))
}

// Request validates the form and builds the submission, carrying the
// advertised rate and the estimated monthly payment.
func (l *Loan) Request(monthlyIncome decimal.Decimal) (model.LoanRequest, error) {
	if err := l.Validate(); err != nil {
		return model.LoanRequest{}, err
	}
	return model.LoanRequest{
		Amount:         l.Amount,
		LoanType:       l.LoanType,
		Purpose:        strings.TrimSpace(l.Purpose),
		Duration:       l.Duration,
		MonthlyIncome:  monthlyIncome,
		Collateral:     strings.TrimSpace(l.Collateral),
		Guarantor:      l.Guarantor,
		InterestRate:   calc.LoanRate(l.LoanType),
		MonthlyPayment: l.Quote().MonthlyPayment,
	}, nil
}

// Review is an administrator's decision on a pending loan.
type Review struct {
	Decision model.LoanStatus
	Reason   string
}

// Validate requires a reason for rejections.
func (r *Review) Validate() error {
	switch r.Decision {
	case model.LoanApproved, model.LoanDisbursed:
		return nil
	case model.LoanRejected:
		if blank(r.Reason) {
			return invalid("rejectionReason", "Please provide a reason for rejection")
		}
		return nil
	}
	return invalid("status", "Unknown decision %q", r.Decision)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
