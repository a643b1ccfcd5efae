package calc

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 8

// passwordSpecials is the set of characters that satisfy the special rule.
const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// Password rule failures are shown to the user verbatim.
var (
	ErrPasswordTooShort  = errors.New("Password must be at least 8 characters long")
	ErrPasswordNoUpper   = errors.New("Password must contain at least one uppercase letter")
	ErrPasswordNoLower   = errors.New("Password must contain at least one lowercase letter")
	ErrPasswordNoDigit   = errors.New("Password must contain at least one number")
	ErrPasswordNoSpecial = errors.New("Password must contain at least one special character")
)

type passwordRule struct {
	ok  func(string) bool
	err error
}

var passwordRules = []passwordRule{
	{func(pw string) bool { return utf8.RuneCountInString(pw) >= MinPasswordLength }, ErrPasswordTooShort},
	{func(pw string) bool { return strings.IndexFunc(pw, isASCIIUpper) >= 0 }, ErrPasswordNoUpper},
	{func(pw string) bool { return strings.IndexFunc(pw, isASCIILower) >= 0 }, ErrPasswordNoLower},
	{func(pw string) bool { return strings.IndexFunc(pw, isASCIIDigit) >= 0 }, ErrPasswordNoDigit},
	{func(pw string) bool { return strings.ContainsAny(pw, passwordSpecials) }, ErrPasswordNoSpecial},
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// PasswordScore awards one point per satisfied rule, 0 through 5. It is
// advisory feedback only; ValidatePassword is the gate.
func PasswordScore(pw string) int {
	score := 0
	for _, rule := range passwordRules {
		if rule.ok(pw) {
			score++
		}
	}
	return score
}

// PasswordLabel maps a score onto its qualitative label.
func PasswordLabel(score int) string {
	switch score {
	case 0, 1:
		return "Very Weak"
	case 2:
		return "Weak"
	case 3:
		return "Fair"
	case 4:
		return "Good"
	case 5:
		return "Strong"
	}
	return ""
}

// ValidatePassword requires every rule and reports the first one missed.
func ValidatePassword(pw string) error {
	for _, rule := range passwordRules {
		if !rule.ok(pw) {
			return rule.err
		}
	}
	return nil
}
