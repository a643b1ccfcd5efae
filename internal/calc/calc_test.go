package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agmortgage/agbank/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmortize_PersonalLoanScenario(t *testing.T) {
	q := Amortize(dec("500000"), 12, LoanRate(model.LoanPersonal))

	// 500000·0.015·1.015^12 / (1.015^12 − 1) = 45839.9964…, rounded up.
	assert.Equal(t, "45840.00", q.MonthlyPayment.StringFixed(2))
	assert.Equal(t, "550080.00", q.TotalPayment.StringFixed(2))
	assert.Equal(t, "50080.00", q.TotalInterest.StringFixed(2))
}

func TestAmortize_Bounds(t *testing.T) {
	principals := []string{"1", "999.99", "50000", "500000", "12345678.91"}
	durations := []int{1, 6, 12, 13, 36, 60, 360}
	rates := []string{"0", "0.5", "4.5", "12", "18", "99"}

	for _, p := range principals {
		for _, n := range durations {
			for _, r := range rates {
				P := dec(p)
				q := Amortize(P, n, dec(r))
				assert.True(t, q.TotalPayment.GreaterThanOrEqual(P),
					"P=%s n=%d r=%s: total %s < principal", p, n, r, q.TotalPayment)
				assert.True(t, q.TotalInterest.Equal(q.TotalPayment.Sub(P)),
					"P=%s n=%d r=%s: interest mismatch", p, n, r)
				assert.True(t, q.TotalPayment.Equal(q.MonthlyPayment.Mul(decimal.NewFromInt(int64(n)))))
			}
		}
	}
}

func TestAmortize_ZeroGuards(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		months    int
	}{
		{"zero principal", "0", 12},
		{"zero duration", "500000", 0},
		{"both zero", "0", 0},
		{"negative principal", "-10", 12},
	}
	for _, tt := range tests {
		q := Amortize(dec(tt.principal), tt.months, dec("18"))
		assert.True(t, q.MonthlyPayment.IsZero(), tt.name)
		assert.True(t, q.TotalPayment.IsZero(), tt.name)
		assert.True(t, q.TotalInterest.IsZero(), tt.name)
	}
}

func TestAmortize_ZeroRateSplitsEvenly(t *testing.T) {
	q := Amortize(dec("100"), 3, decimal.Zero)
	assert.Equal(t, "33.34", q.MonthlyPayment.StringFixed(2))
	assert.Equal(t, "0.02", q.TotalInterest.StringFixed(2))
}

func TestSchedule_ClosesAtZero(t *testing.T) {
	rows := Schedule(dec("500000"), 12, dec("18"))
	require.Len(t, rows, 12)

	assert.Equal(t, "7500.00", rows[0].Interest.StringFixed(2))
	assert.True(t, rows[len(rows)-1].Remaining.IsZero())

	principal := decimal.Zero
	for i, row := range rows {
		assert.Equal(t, i+1, row.Month)
		principal = principal.Add(row.Principal)
	}
	assert.Equal(t, "500000.00", principal.StringFixed(2))
}

func TestSchedule_Empty(t *testing.T) {
	assert.Nil(t, Schedule(decimal.Zero, 12, dec("18")))
	assert.Nil(t, Schedule(dec("1000"), 0, dec("18")))
}

func TestRates(t *testing.T) {
	assert.Equal(t, "18", LoanRate(model.LoanPersonal).String())
	assert.Equal(t, "12", LoanRate(model.LoanMortgage).String())
	assert.Equal(t, "15", LoanRate(model.LoanBusiness).String())
	assert.Equal(t, "14", LoanRate(model.LoanAuto).String())
	assert.True(t, LoanRate("payday").IsZero())

	assert.Equal(t, "4.5", SavingsRate(model.AccountSavings).String())
	assert.Equal(t, "8.5", SavingsRate(model.AccountFixed).String())
}

func TestEffectiveRatesPreferBackend(t *testing.T) {
	stored := dec("16")
	payment := dec("1234.56")
	loan := model.LoanApplication{Amount: dec("100000"), LoanType: model.LoanPersonal, Duration: 12}

	assert.Equal(t, "18", EffectiveLoanRate(loan).String())
	assert.Equal(t, Amortize(loan.Amount, 12, dec("18")).MonthlyPayment, EffectiveMonthlyPayment(loan))

	loan.InterestRate = &stored
	loan.MonthlyPayment = &payment
	assert.Equal(t, "16", EffectiveLoanRate(loan).String())
	assert.Equal(t, "1234.56", EffectiveMonthlyPayment(loan).String())
}

func TestPasswordScore(t *testing.T) {
	tests := []struct {
		pw    string
		score int
		label string
	}{
		{"", 0, "Very Weak"},
		{"abc", 1, "Very Weak"},
		{"abcdefgh", 2, "Weak"},
		{"Abcdefgh", 3, "Fair"},
		{"Abcdefg1", 4, "Good"},
		{"Secret1!", 5, "Strong"},
		{"!!!!", 1, "Very Weak"},
	}
	for _, tt := range tests {
		got := PasswordScore(tt.pw)
		assert.Equal(t, tt.score, got, "PasswordScore(%q)", tt.pw)
		assert.Equal(t, tt.label, PasswordLabel(got), "PasswordLabel for %q", tt.pw)
	}
}

func TestPasswordScore_Monotonic(t *testing.T) {
	// Each step satisfies one more rule than the last.
	steps := []string{"a", "aaaaaaaa", "aaaaaaaA", "aaaaaaA1", "aaaaaA1!"}
	prev := PasswordScore("")
	for _, pw := range steps {
		got := PasswordScore(pw)
		assert.GreaterOrEqual(t, got, prev, "score dropped at %q", pw)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 5)
		prev = got
	}
	assert.Equal(t, 5, prev)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"Sh0rt!", ErrPasswordTooShort},
		{"lowercase1!", ErrPasswordNoUpper},
		{"UPPERCASE1!", ErrPasswordNoLower},
		{"NoDigits!!", ErrPasswordNoDigit},
		{"NoSpecial1", ErrPasswordNoSpecial},
		{"Secret1!", nil},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.pw)
		if tt.want == nil {
			assert.NoError(t, err, tt.pw)
			continue
		}
		assert.ErrorIs(t, err, tt.want, tt.pw)
	}
}

func TestFormatNaira(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "₦0.00"},
		{"5", "₦5.00"},
		{"999.999", "₦1,000.00"},
		{"1000", "₦1,000.00"},
		{"45839.9964", "₦45,840.00"},
		{"1234567.891", "₦1,234,567.89"},
		{"-2500.5", "-₦2,500.50"},
		{"-0.001", "₦0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNaira(dec(tt.amount)), "FormatNaira(%s)", tt.amount)
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "8.5% p.a.", FormatRate(SavingsRate(model.AccountFixed)))
}
