// Package mockbank is an in-memory development backend for the REST surface
// agbank consumes. It enforces the rules the real backend owns: interest
// rates, balance integrity and administrator-only routes.
package mockbank

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

var (
	errDuplicateEmail = errors.New("User already exists")
	errUnknownUser    = errors.New("User not found")
)

// Config configures a Bank.
type Config struct {
	// Secret signs bearer tokens. A random secret is generated when empty.
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int

	// AdminEmail and AdminPassword seed an administrator when both are set.
	AdminEmail    string
	AdminPassword string

	Logger logrus.FieldLogger
	Now    func() time.Time
}

type userRecord struct {
	user model.User
	hash []byte
}

// Bank holds every record in memory behind one lock.
type Bank struct {
	secret []byte
	ttl    time.Duration
	cost   int
	log    logrus.FieldLogger
	now    func() time.Time

	requests atomic.Int64

	mu       sync.RWMutex
	users    map[id.ID]*userRecord
	byEmail  map[string]id.ID
	order    []id.ID // users in creation order
	loans    []model.LoanApplication
	accounts []model.SavingsAccount
	nextAcct int64
}

// New creates a Bank, seeding the administrator if configured.
func New(cfg Config) (*Bank, error) {
	b := &Bank{
		secret:   cfg.Secret,
		ttl:      cfg.TokenTTL,
		cost:     cfg.BcryptCost,
		log:      cfg.Logger,
		now:      cfg.Now,
		users:    make(map[id.ID]*userRecord),
		byEmail:  make(map[string]id.ID),
		nextAcct: 2000000000,
	}
	if len(b.secret) == 0 {
		b.secret = []byte(uuid.NewString())
	}
	if b.ttl == 0 {
		b.ttl = 24 * time.Hour
	}
	if b.cost == 0 {
		b.cost = bcrypt.DefaultCost
	}
	if b.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		b.log = l
	}
	if b.now == nil {
		b.now = time.Now
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		profile := model.Profile{Email: cfg.AdminEmail, FirstName: "System", LastName: "Administrator"}
		if _, err := b.AddUser(profile, cfg.AdminPassword, model.RoleAdmin); err != nil {
			return nil, fmt.Errorf("seeding admin: %w", err)
		}
	}
	return b, nil
}

// Requests is the number of HTTP requests the router has served.
func (b *Bank) Requests() int64 { return b.requests.Load() }

// AddUser creates an active identity with the given role.
func (b *Bank) AddUser(profile model.Profile, password string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	profile.Email = normalizeEmail(profile.Email)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.byEmail[profile.Email]; taken {
		return model.User{}, errDuplicateEmail
	}
	u := model.User{
		ID:        id.ID(uuid.NewString()),
		Profile:   profile,
		Role:      role,
		CreatedAt: b.now().UTC(),
		IsActive:  true,
	}
	b.users[u.ID] = &userRecord{user: u, hash: hash}
	b.byEmail[profile.Email] = u.ID
	b.order = append(b.order, u.ID)
	return u, nil
}

func (b *Bank) authenticate(email, password string) (model.User, bool) {
	b.mu.RLock()
	uid, ok := b.byEmail[normalizeEmail(email)]
	var rec *userRecord
	if ok {
		rec = b.users[uid]
	}
	b.mu.RUnlock()
	if rec == nil {
		return model.User{}, false
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return model.User{}, false
	}
	return rec.user, true
}

func (b *Bank) user(uid id.ID) (model.User, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.users[uid]
	if !ok {
		return model.User{}, false
	}
	return rec.user, true
}

func (b *Bank) allUsers() []model.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.User, 0, len(b.order))
	for _, uid := range b.order {
		out = append(out, b.users[uid].user)
	}
	return out
}

// deleteUser removes an identity along with its loans and accounts.
func (b *Bank) deleteUser(uid id.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.users[uid]
	if !ok {
		return errUnknownUser
	}
	delete(b.users, uid)
	delete(b.byEmail, rec.user.Email)
	b.order = removeID(b.order, uid)

	loans := b.loans[:0]
	for _, l := range b.loans {
		if l.UserID != uid {
			loans = append(loans, l)
		}
	}
	b.loans = loans

	accounts := b.accounts[:0]
	for _, a := range b.accounts {
		if a.UserID != uid {
			accounts = append(accounts, a)
		}
	}
	b.accounts = accounts
	return nil
}

func (b *Bank) setActive(uid id.ID, active bool) (model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.users[uid]
	if !ok {
		return model.User{}, errUnknownUser
	}
	rec.user.IsActive = active
	return rec.user, nil
}

// visibleLoans returns every loan for administrators and the caller's own
// otherwise.
func (b *Bank) visibleLoans(caller model.User) []model.LoanApplication {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.LoanApplication, 0, len(b.loans))
	for _, l := range b.loans {
		if caller.IsAdmin() || l.UserID == caller.ID {
			out = append(out, l)
		}
	}
	return out
}

func (b *Bank) visibleAccounts(caller model.User) []model.SavingsAccount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.SavingsAccount, 0, len(b.accounts))
	for _, a := range b.accounts {
		if caller.IsAdmin() || a.UserID == caller.ID {
			out = append(out, cloneAccount(a))
		}
	}
	return out
}

func cloneAccount(a model.SavingsAccount) model.SavingsAccount {
	a.Transactions = append([]model.Transaction(nil), a.Transactions...)
	if a.Transactions == nil {
		a.Transactions = []model.Transaction{}
	}
	return a
}

func removeID(ids []id.ID, target id.ID) []id.ID {
	for i, v := range ids {
		if v == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
