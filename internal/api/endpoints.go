package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

// ErrIncompleteAuth means the backend answered 2xx without a user or token.
var ErrIncompleteAuth = errors.New("auth response missing user or token")

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (r *AuthResponse) validate() error {
	if r.User == nil || r.Token == "" {
		return ErrIncompleteAuth
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	IsActive bool `json:"isActive"`
}

func itemPath(prefix string, itemID id.ID, suffix string) string {
	return prefix + "/" + url.PathEscape(itemID.String()) + suffix
}

// Login posts credentials to /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Register posts a new profile to /auth/register.
func (c *Client) Register(ctx context.Context, req forms.RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &resp, nil
}

// ListUsers fetches every identity. Administrators only.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_users", http.MethodGet, "/users", nil, &raw); err != nil {
		return nil, err
	}
	users, err := decodeList[model.User](raw)
	if err != nil {
		return nil, fmt.Errorf("list_users: decoding response: %w", err)
	}
	return users, nil
}

// DeleteUser removes an identity.
func (c *Client) DeleteUser(ctx context.Context, userID id.ID) error {
	return c.do(ctx, "delete_user", http.MethodDelete, itemPath("/users", userID, ""), nil, nil)
}

// SetUserStatus activates or deactivates an identity.
func (c *Client) SetUserStatus(ctx context.Context, userID id.ID, active bool) error {
	return c.do(ctx, "update_user_status", http.MethodPatch, itemPath("/users", userID, "/status"), statusRequest{IsActive: active}, nil)
}

// ListLoans fetches the loans visible to the caller.
func (c *Client) ListLoans(ctx context.Context) ([]model.LoanApplication, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_loans", http.MethodGet, "/loans", nil, &raw); err != nil {
		return nil, err
	}
	loans, err := decodeList[model.LoanApplication](raw)
	if err != nil {
		return nil, fmt.Errorf("list_loans: decoding response: %w", err)
	}
	return loans, nil
}

// CreateLoan submits an application and returns the stored record, or nil
// when the reply carries none.
func (c *Client) CreateLoan(ctx context.Context, req model.LoanRequest) (*model.LoanApplication, error) {
	var resp struct {
		Loan *model.LoanApplication `json:"loan"`
	}
	if err := c.do(ctx, "create_loan", http.MethodPost, "/loans", req, &resp); err != nil {
		return nil, err
	}
	return resp.Loan, nil
}

// UpdateLoan records an administrator's decision on a loan.
func (c *Client) UpdateLoan(ctx context.Context, loanID id.ID, review model.LoanReview) error {
	return c.do(ctx, "update_loan", http.MethodPut, itemPath("/loans", loanID, ""), review, nil)
}

// ListSavings fetches the savings accounts visible to the caller.
func (c *Client) ListSavings(ctx context.Context) ([]model.SavingsAccount, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_savings", http.MethodGet, "/savings", nil, &raw); err != nil {
		return nil, err
	}
	accounts, err := decodeList[model.SavingsAccount](raw)
	if err != nil {
		return nil, fmt.Errorf("list_savings: decoding response: %w", err)
	}
	return accounts, nil
}

// CreateSavings opens an account and returns the stored record, or nil when
// the reply carries none.
func (c *Client) CreateSavings(ctx context.Context, req model.NewAccountRequest) (*model.SavingsAccount, error) {
	var resp struct {
		Account *model.SavingsAccount `json:"account"`
	}
	if err := c.do(ctx, "create_savings", http.MethodPost, "/savings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Account, nil
}

// CreateTransaction posts a deposit or withdrawal against an account. The
// returned entry is nil when the reply carries none.
func (c *Client) CreateTransaction(ctx context.Context, accountID id.ID, req model.TransactionRequest) (*model.Transaction, error) {
	var resp struct {
		Transaction *model.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, "create_transaction", http.MethodPost, itemPath("/savings", accountID, "/transactions"), req, &resp); err != nil {
		return nil, err
	}
	return resp.Transaction, nil
}
