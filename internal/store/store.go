// Package store mirrors the backend's users, loans and savings accounts
// for the current identity and orchestrates mutations against them.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/metrics"
	"github.com/agmortgage/agbank/internal/model"
	"github.com/agmortgage/agbank/internal/savings"
	"github.com/agmortgage/agbank/internal/session"
)

var (
	// ErrNoSession is returned when an operation needs an identity and the
	// store has not been told of one.
	ErrNoSession = errors.New("no active session")
	// ErrUnknownAccount is returned for a transaction against an account
	// that is not in the mirrored collection.
	ErrUnknownAccount = errors.New("unknown savings account")
)

// Backend is the part of the REST client the store needs.
type Backend interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, userID id.ID) error
	SetUserStatus(ctx context.Context, userID id.ID, active bool) error
	ListLoans(ctx context.Context) ([]model.LoanApplication, error)
	CreateLoan(ctx context.Context, req model.LoanRequest) (*model.LoanApplication, error)
	UpdateLoan(ctx context.Context, loanID id.ID, review model.LoanReview) error
	ListSavings(ctx context.Context) ([]model.SavingsAccount, error)
	CreateSavings(ctx context.Context, req model.NewAccountRequest) (*model.SavingsAccount, error)
	CreateTransaction(ctx context.Context, accountID id.ID, req model.TransactionRequest) (*model.Transaction, error)
}

// Sessions is where the store learns about identity changes.
type Sessions interface {
	Subscribe(o session.Observer) (unsubscribe func())
}

// ReconcileError reports that a mutation was accepted by the backend but
// re-fetching the collections it invalidated failed. The affected
// collections are empty until the next refresh.
type ReconcileError struct {
	Collections Collection
	Err         error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("refreshing %s: %v", e.Collections, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// Store is the Domain Data Store.
type Store struct {
	backend Backend
	log     logrus.FieldLogger
	metrics *metrics.Collector

	// seq serializes load, refresh and mutation sequences. Overlapping
	// callers queue behind it.
	seq     sync.Mutex
	loading atomic.Int32

	mu         sync.RWMutex
	identity   *model.User
	generation uint64
	loaded     bool
	users      []model.User
	loans      []model.LoanApplication
	accounts   []model.SavingsAccount
	book       *savings.Book

	unsubscribe func()
}

// New creates a Store subscribed to sessions. metrics and log may be nil.
func New(backend Backend, sessions Sessions, log logrus.FieldLogger, m *metrics.Collector) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Store{
		backend: backend,
		log:     log.WithField("component", "store"),
		metrics: m,
		book:    savings.NewBook(nil),
	}
	if sessions != nil {
		s.unsubscribe = sessions.Subscribe(s)
	}
	return s
}

// HandleSessionEvent implements session.Observer.
func (s *Store) HandleSessionEvent(e session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	switch e.Kind {
	case session.LoggedIn, session.Registered, session.Restored:
		if e.User == nil {
			return
		}
		if s.identity == nil || s.identity.ID != e.User.ID {
			s.clearLocked()
		}
		u := *e.User
		s.identity = &u
		s.loaded = false
	case session.LoggedOut:
		s.identity = nil
		s.clearLocked()
	}
	s.log.WithField("event", e.Kind.String()).Debug("session changed")
}

// Reset drops every mirrored collection and forces the next EnsureLoaded to
// fetch again. The identity is kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.clearLocked()
}

// Dispose unsubscribes from session events and drops all state.
func (s *Store) Dispose() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.identity = nil
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.loaded = false
	s.users = nil
	s.loans = nil
	s.accounts = nil
	s.book = savings.NewBook(nil)
}

// Loading reports whether any fetch or mutation sequence is running or
// queued.
func (s *Store) Loading() bool { return s.loading.Load() > 0 }

func (s *Store) begin() func() {
	s.loading.Add(1)
	s.seq.Lock()
	return func() {
		s.seq.Unlock()
		s.loading.Add(-1)
	}
}

// EnsureLoaded performs the initial load for the current identity if it has
// not completed yet. Without an identity every collection is cleared.
// Collections whose fetch failed are left empty and their errors are
// returned joined; the load still counts as complete.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	if s.identity == nil {
		s.clearLocked()
		s.mu.Unlock()
		return nil
	}
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	done := s.begin()
	defer done()

	s.mu.RLock()
	loaded = s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	s.log.Debug("starting initial load")
	return s.load(ctx)
}

// Refresh re-fetches every collection for the current identity.
func (s *Store) Refresh(ctx context.Context) error {
	done := s.begin()
	defer done()
	return s.load(ctx)
}

// load runs the full sequence and marks the load complete. Callers hold seq.
func (s *Store) load(ctx context.Context) error {
	s.mu.RLock()
	hasIdentity := s.identity != nil
	gen := s.generation
	s.mu.RUnlock()
	if !hasIdentity {
		return ErrNoSession
	}

	err := s.reconcile(ctx, All)

	s.mu.Lock()
	if s.generation == gen {
		s.loaded = true
	}
	s.mu.Unlock()
	return err
}

// reconcile re-fetches exactly the collections in set, in fetch order.
// Users are only fetched for administrators. Callers hold seq.
// A session change part way through abandons the rest of the sequence.
func (s *Store) reconcile(ctx context.Context, set Collection) error {
	s.mu.RLock()
	gen := s.generation
	admin := s.identity != nil && s.identity.IsAdmin()
	s.mu.RUnlock()

	var errs []error
	for _, c := range fetchOrder {
		if !set.Has(c) || (c == Users && !admin) {
			continue
		}
		if s.stale(gen) {
			break
		}
		if err := s.fetch(ctx, c, gen); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) stale(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation != gen
}

func (s *Store) fetch(ctx context.Context, c Collection, gen uint64) error {
	log := s.log.WithField("collection", c.String())
	log.Debug("fetching")

	var (
		users    []model.User
		loans    []model.LoanApplication
		accounts []model.SavingsAccount
		n        int
		err      error
	)
	switch c {
	case Loans:
		loans, err = s.backend.ListLoans(ctx)
		n = len(loans)
	case Savings:
		accounts, err = s.backend.ListSavings(ctx)
		n = len(accounts)
	case Users:
		users, err = s.backend.ListUsers(ctx)
		n = len(users)
	}
	s.metrics.RecordRefresh(c.String(), err)
	if err != nil {
		log.WithError(err).Warn("fetch failed; collection reset to empty")
		err = fmt.Errorf("fetching %s: %w", c, err)
		n = 0
	} else {
		log.WithField("count", n).Debug("fetched")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// The session changed while the request was in flight.
		return err
	}
	switch c {
	case Loans:
		s.loans = loans
	case Savings:
		s.accounts = accounts
		s.book = savings.NewBook(accounts)
	case Users:
		s.users = users
	}
	return err
}

// mutate runs one mutation sequence: request, then reconcile of set.
func (s *Store) mutate(ctx context.Context, op string, set Collection, request func() error) error {
	done := s.begin()
	defer done()

	log := s.log.WithField("op", op)
	if err := request(); err != nil {
		log.WithError(err).Warn("mutation failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	log.WithField("invalidates", set.String()).Debug("mutation accepted")

	if err := s.reconcile(ctx, set); err != nil {
		return &ReconcileError{Collections: set, Err: err}
	}
	return nil
}

func (s *Store) requireIdentity() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ErrNoSession
	}
	return nil
}

// AddLoanApplication submits a loan and re-fetches loans.
func (s *Store) AddLoanApplication(ctx context.Context, req model.LoanRequest) (*model.LoanApplication, error) {
	if err := s.requireIdentity(); err != nil {
		return nil, err
	}
	var created *model.LoanApplication
	err := s.mutate(ctx, "add loan application", invalidatesAddLoan, func() error {
		var err error
		created, err = s.backend.CreateLoan(ctx, req)
		return err
	})
	return created, err
}

// UpdateLoanApplication records a review decision and re-fetches loans.
func (s *Store) UpdateLoanApplication(ctx context.Context, loanID id.ID, review model.LoanReview) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}
	return s.mutate(ctx, "update loan application", invalidatesUpdateLoan, func() error {
		return s.backend.UpdateLoan(ctx, loanID, review)
	})
}

// AddSavingsAccount opens an account and re-fetches savings. A deposit
// below the minimum is rejected before any request.
func (s *Store) AddSavingsAccount(ctx context.Context, req model.NewAccountRequest) (*model.SavingsAccount, error) {
	if err := s.requireIdentity(); err != nil {
		return nil, err
	}
	form := forms.SavingsAccount{AccountType: req.AccountType, InitialDeposit: req.InitialDeposit}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var created *model.SavingsAccount
	err := s.mutate(ctx, "add savings account", invalidatesAddSavings, func() error {
		var err error
		created, err = s.backend.CreateSavings(ctx, req)
		return err
	})
	return created, err
}

// AddTransaction posts a deposit or withdrawal and re-fetches savings. The
// account must be mirrored locally, the amount positive, and a withdrawal
// no larger than the mirrored balance; otherwise nothing is sent.
func (s *Store) AddTransaction(ctx context.Context, accountID id.ID, req model.TransactionRequest) (*model.Transaction, error) {
	if err := s.requireIdentity(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	account, ok := s.book.Get(accountID)
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	form := forms.Transaction{Type: req.Type, Amount: req.Amount, Description: req.Description}
	if err := form.ValidateAgainst(account.Balance); err != nil {
		return nil, err
	}

	var created *model.Transaction
	err := s.mutate(ctx, "add transaction", invalidatesAddTransaction, func() error {
		var err error
		created, err = s.backend.CreateTransaction(ctx, accountID, req)
		return err
	})
	return created, err
}

// DeleteUser removes an identity and re-fetches loans, savings and users.
func (s *Store) DeleteUser(ctx context.Context, userID id.ID) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}
	return s.mutate(ctx, "delete user", invalidatesDeleteUser, func() error {
		return s.backend.DeleteUser(ctx, userID)
	})
}

// UpdateUserStatus activates or deactivates an identity and re-fetches users.
func (s *Store) UpdateUserStatus(ctx context.Context, userID id.ID, active bool) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}
	return s.mutate(ctx, "update user status", invalidatesUpdateUserStatus, func() error {
		return s.backend.SetUserStatus(ctx, userID, active)
	})
}

// Identity returns the identity the store is loading for, or nil.
func (s *Store) Identity() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	u := *s.identity
	return &u
}

// Loaded reports whether the initial load for the current identity is done.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Users returns the mirrored identities. Empty for non-administrators.
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// Loans returns the mirrored loan applications.
func (s *Store) Loans() []model.LoanApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.loans)
}

// SavingsAccounts returns the mirrored savings accounts.
func (s *Store) SavingsAccounts() []model.SavingsAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

// Book returns the current savings snapshot.
func (s *Store) Book() *savings.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book
}

// Loan returns a mirrored loan by ID.
func (s *Store) Loan(loanID id.ID) (model.LoanApplication, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loans {
		if l.ID == loanID {
			return l, true
		}
	}
	return model.LoanApplication{}, false
}

// UserTotalSavings sums the balances of userID's accounts.
func (s *Store) UserTotalSavings(userID id.ID) decimal.Decimal {
	return s.Book().TotalFor(userID)
}

// TotalSystemSavings sums every mirrored balance.
func (s *Store) TotalSystemSavings() decimal.Decimal {
	return s.Book().Total()
}
