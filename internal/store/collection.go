package store

import "strings"

// Collection is a set of mirrored collections.
type Collection uint8

const (
	Loans Collection = 1 << iota
	Savings
	Users

	All = Loans | Savings | Users
)

// fetchOrder is the fixed order every load and reconcile follows.
var fetchOrder = []Collection{Loans, Savings, Users}

// Has reports whether every collection in other is in c.
func (c Collection) Has(other Collection) bool { return c&other == other }

func (c Collection) String() string {
	var names []string
	for _, one := range fetchOrder {
		if c.Has(one) {
			names = append(names, one.name())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func (c Collection) name() string {
	switch c {
	case Loans:
		return "loans"
	case Savings:
		return "savings"
	case Users:
		return "users"
	}
	return "unknown"
}

// Invalidation set of each mutation.
const (
	invalidatesAddLoan          = Loans
	invalidatesUpdateLoan       = Loans
	invalidatesAddSavings       = Savings
	invalidatesAddTransaction   = Savings
	invalidatesDeleteUser       = Loans | Savings | Users
	invalidatesUpdateUserStatus = Users
)
