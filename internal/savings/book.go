// Package savings provides lookup and aggregation over a snapshot of
// savings accounts.
package savings

import (
	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

// Book indexes a snapshot of accounts. It is immutable once built.
type Book struct {
	accounts []model.SavingsAccount
	byID     map[id.ID]int
}

// NewBook creates a Book from a slice of accounts.
func NewBook(accounts []model.SavingsAccount) *Book {
	byID := make(map[id.ID]int, len(accounts))
	for i, a := range accounts {
		byID[a.ID] = i
	}
	return &Book{accounts: accounts, byID: byID}
}

// All returns all accounts in backend order.
func (b *Book) All() []model.SavingsAccount {
	return b.accounts
}

// Len is the number of accounts.
func (b *Book) Len() int { return len(b.accounts) }

// Get returns an account by ID.
func (b *Book) Get(accountID id.ID) (model.SavingsAccount, bool) {
	i, ok := b.byID[accountID]
	if !ok {
		return model.SavingsAccount{}, false
	}
	return b.accounts[i], true
}

// Exists reports whether an account ID exists.
func (b *Book) Exists(accountID id.ID) bool {
	_, ok := b.byID[accountID]
	return ok
}

// ByOwner returns every account held by userID.
func (b *Book) ByOwner(userID id.ID) []model.SavingsAccount {
	var result []model.SavingsAccount
	for _, a := range b.accounts {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result
}

// ByType returns every account of the given product.
func (b *Book) ByType(accountType model.AccountType) []model.SavingsAccount {
	var result []model.SavingsAccount
	for _, a := range b.accounts {
		if a.AccountType == accountType {
			result = append(result, a)
		}
	}
	return result
}

// TotalFor sums the balances of userID's accounts. Zero when they hold none.
func (b *Book) TotalFor(userID id.ID) decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.accounts {
		if a.UserID == userID {
			total = total.Add(a.Balance)
		}
	}
	return total
}

// CountFor is the number of accounts userID holds.
func (b *Book) CountFor(userID id.ID) int {
	n := 0
	for _, a := range b.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n
}

// Total sums every balance regardless of owner.
func (b *Book) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// Owners returns the distinct owners in first-seen order.
func (b *Book) Owners() []id.ID {
	seen := make(map[id.ID]bool)
	var owners []id.ID
	for _, a := range b.accounts {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			owners = append(owners, a.UserID)
		}
	}
	return owners
}
