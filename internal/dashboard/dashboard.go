// Package dashboard derives the summary figures shown to customers and
// administrators from mirrored collections.
package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
	"github.com/agmortgage/agbank/internal/savings"
)

// LoanTotals counts and sums a group of loans.
type LoanTotals struct {
	Count  int
	Amount decimal.Decimal
}

func (t *LoanTotals) add(l model.LoanApplication) {
	t.Count++
	t.Amount = t.Amount.Add(l.Amount)
}

// UserSummary is a customer's landing view.
type UserSummary struct {
	TotalSavings decimal.Decimal
	Accounts     int
	ActiveLoans  LoanTotals // approved or disbursed
	PendingLoans LoanTotals
	RecentLoans  []model.LoanApplication // newest first
}

// maxRecent bounds UserSummary.RecentLoans.
const maxRecent = 5

// ForUser summarizes userID's loans and savings.
func ForUser(userID id.ID, loans []model.LoanApplication, book *savings.Book) UserSummary {
	s := UserSummary{
		TotalSavings: book.TotalFor(userID),
		Accounts:     book.CountFor(userID),
	}
	var own []model.LoanApplication
	for _, l := range loans {
		if l.UserID != userID {
			continue
		}
		own = append(own, l)
		switch {
		case l.Status.IsActive():
			s.ActiveLoans.add(l)
		case l.Status == model.LoanPending:
			s.PendingLoans.add(l)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].AppliedAt.After(own[j].AppliedAt) })
	if len(own) > maxRecent {
		own = own[:maxRecent]
	}
	s.RecentLoans = own
	return s
}

// CustomerSavings is one row of the administrator's savings breakdown.
type CustomerSavings struct {
	User     model.User
	Total    decimal.Decimal
	Accounts int
}

// AdminSummary is the administrator's landing view.
type AdminSummary struct {
	Customers       int
	LoansByStatus   map[model.LoanStatus]LoanTotals
	TotalSavings    decimal.Decimal
	AverageSavings  decimal.Decimal // per customer
	SavingsAccounts int
	ByCustomer      []CustomerSavings // largest total first
}

// ForAdmin summarizes every customer. Administrators are not customers.
func ForAdmin(users []model.User, loans []model.LoanApplication, book *savings.Book) AdminSummary {
	s := AdminSummary{
		LoansByStatus:   make(map[model.LoanStatus]LoanTotals),
		TotalSavings:    book.Total(),
		SavingsAccounts: book.Len(),
	}
	for _, l := range loans {
		t := s.LoansByStatus[l.Status]
		t.add(l)
		s.LoansByStatus[l.Status] = t
	}

	for _, u := range users {
		if u.IsAdmin() {
			continue
		}
		s.Customers++
		s.ByCustomer = append(s.ByCustomer, CustomerSavings{
			User:     u,
			Total:    book.TotalFor(u.ID),
			Accounts: book.CountFor(u.ID),
		})
	}
	sort.SliceStable(s.ByCustomer, func(i, j int) bool {
		return s.ByCustomer[i].Total.GreaterThan(s.ByCustomer[j].Total)
	})

	if s.Customers > 0 {
		s.AverageSavings = s.TotalSavings.Div(decimal.NewFromInt(int64(s.Customers))).Round(2)
	}
	return s
}
