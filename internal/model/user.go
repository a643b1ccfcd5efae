package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
)

// Role distinguishes ordinary customers from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Gender as captured at registration.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// MaritalStatus as captured at registration.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

// Address is a postal address.
type Address struct {
	Street     string `json:"street" yaml:"street"`
	City       string `json:"city" yaml:"city"`
	State      string `json:"state" yaml:"state"`
	Country    string `json:"country" yaml:"country"`
	PostalCode string `json:"postalCode" yaml:"postal_code"`
}

// NextOfKin is the emergency contact recorded for a customer.
type NextOfKin struct {
	Name         string `json:"name" yaml:"name"`
	Relationship string `json:"relationship" yaml:"relationship"`
	PhoneNumber  string `json:"phoneNumber" yaml:"phone_number"`
	Address      string `json:"address" yaml:"address"`
}

// Profile holds the personal, contact, employment and verification fields a
// customer supplies at registration.
type Profile struct {
	Email                  string          `json:"email" yaml:"email"`
	FirstName              string          `json:"firstName" yaml:"first_name"`
	LastName               string          `json:"lastName" yaml:"last_name"`
	MiddleName             string          `json:"middleName,omitempty" yaml:"middle_name,omitempty"`
	PhoneNumber            string          `json:"phoneNumber" yaml:"phone_number"`
	DateOfBirth            string          `json:"dateOfBirth" yaml:"date_of_birth"` // "YYYY-MM-DD"
	Gender                 Gender          `json:"gender" yaml:"gender"`
	MaritalStatus          MaritalStatus   `json:"maritalStatus" yaml:"marital_status"`
	Occupation             string          `json:"occupation" yaml:"occupation"`
	Employer               string          `json:"employer" yaml:"employer"`
	MonthlyIncome          decimal.Decimal `json:"monthlyIncome" yaml:"monthly_income"`
	Address                Address         `json:"address" yaml:"address"`
	NextOfKin              NextOfKin       `json:"nextOfKin" yaml:"next_of_kin"`
	BankVerificationNumber string          `json:"bankVerificationNumber" yaml:"bank_verification_number"`
}

// User is an identity record as owned by the backend.
type User struct {
	ID id.ID `json:"id"`
	Profile
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

// UnmarshalJSON decodes monthly income and createdAt leniently.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		MonthlyIncome json.RawMessage `json:"monthlyIncome"`
		CreatedAt     json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decoding user: %w", err)
	}
	u.MonthlyIncome = ParseAmount(aux.MonthlyIncome)
	u.CreatedAt = ParseTime(aux.CreatedAt)
	return nil
}

// IsAdmin reports whether the identity carries the administrator role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// FullName joins first, middle and last names.
func (u User) FullName() string {
	name := u.FirstName
	if u.MiddleName != "" {
		name += " " + u.MiddleName
	}
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
