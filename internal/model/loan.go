package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
)

// LoanType is the product a loan application is filed under.
type LoanType string

const (
	LoanPersonal LoanType = "personal"
	LoanMortgage LoanType = "mortgage"
	LoanBusiness LoanType = "business"
	LoanAuto     LoanType = "auto"
)

// LoanTypes lists every loan product in display order.
func LoanTypes() []LoanType {
	return []LoanType{LoanPersonal, LoanMortgage, LoanBusiness, LoanAuto}
}

// Valid reports whether t is a known loan product.
func (t LoanType) Valid() bool {
	switch t {
	case LoanPersonal, LoanMortgage, LoanBusiness, LoanAuto:
		return true
	}
	return false
}

// LoanStatus is the review state of a loan application.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanRejected  LoanStatus = "rejected"
	LoanDisbursed LoanStatus = "disbursed"
)

// CanTransition reports whether an administrator may move a loan from s to next.
// pending -> approved | rejected, approved -> disbursed.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	switch s {
	case LoanPending:
		return next == LoanApproved || next == LoanRejected
	case LoanApproved:
		return next == LoanDisbursed
	}
	return false
}

// IsActive reports whether the loan counts as an active facility.
func (s LoanStatus) IsActive() bool {
	return s == LoanApproved || s == LoanDisbursed
}

// Guarantor vouches for a loan applicant.
type Guarantor struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	Relationship string `json:"relationship"`
	Address      string `json:"address"`
}

// LoanApplication mirrors a backend loan record.
type LoanApplication struct {
	ID              id.ID            `json:"id"`
	UserID          id.ID            `json:"userId"`
	Amount          decimal.Decimal  `json:"amount"`
	LoanType        LoanType         `json:"loanType"`
	Purpose         string           `json:"purpose"`
	Duration        int              `json:"duration"` // months
	MonthlyIncome   decimal.Decimal  `json:"monthlyIncome"`
	Collateral      string           `json:"collateral,omitempty"`
	Guarantor       Guarantor        `json:"guarantor"`
	Status          LoanStatus       `json:"status"`
	AppliedAt       time.Time        `json:"appliedAt"`
	ReviewedAt      *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy      id.ID            `json:"reviewedBy,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	InterestRate    *decimal.Decimal `json:"interestRate,omitempty"`
	MonthlyPayment  *decimal.Decimal `json:"monthlyPayment,omitempty"`
}

// UnmarshalJSON decodes money and timestamps leniently so one odd record
// cannot fail the whole loan collection.
func (l *LoanApplication) UnmarshalJSON(data []byte) error {
	type alias LoanApplication
	aux := struct {
		*alias
		Amount         json.RawMessage `json:"amount"`
		MonthlyIncome  json.RawMessage `json:"monthlyIncome"`
		AppliedAt      json.RawMessage `json:"appliedAt"`
		ReviewedAt     json.RawMessage `json:"reviewedAt"`
		InterestRate   json.RawMessage `json:"interestRate"`
		MonthlyPayment json.RawMessage `json:"monthlyPayment"`
	}{alias: (*alias)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decoding loan application: %w", err)
	}
	l.Amount = ParseAmount(aux.Amount)
	l.MonthlyIncome = ParseAmount(aux.MonthlyIncome)
	l.AppliedAt = ParseTime(aux.AppliedAt)
	l.ReviewedAt = parseTimePtr(aux.ReviewedAt)
	l.InterestRate = parseAmountPtr(aux.InterestRate)
	l.MonthlyPayment = parseAmountPtr(aux.MonthlyPayment)
	return nil
}

// LoanRequest is the body of POST /loans.
type LoanRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	LoanType       LoanType        `json:"loanType"`
	Purpose        string          `json:"purpose"`
	Duration       int             `json:"duration"`
	MonthlyIncome  decimal.Decimal `json:"monthlyIncome"`
	Collateral     string          `json:"collateral,omitempty"`
	Guarantor      Guarantor       `json:"guarantor"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

// LoanReview is the body of PUT /loans/:id.
type LoanReview struct {
	Status          LoanStatus `json:"status"`
	ReviewedAt      time.Time  `json:"reviewedAt"`
	ReviewedBy      id.ID      `json:"reviewedBy"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}
