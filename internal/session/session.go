// Package session owns the authenticated identity: login, registration,
// logout and restoring a persisted session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/agmortgage/agbank/internal/api"
	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/model"
	"github.com/agmortgage/agbank/internal/storage"
)

// Durable storage keys. Both are written and cleared together.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Backend is the part of the REST client the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, req forms.RegisterRequest) (*api.AuthResponse, error)
}

type subscription struct {
	observer Observer
}

// Store holds the current identity and its bearer token.
type Store struct {
	storage storage.Store
	backend Backend
	log     logrus.FieldLogger
	now     func() time.Time

	mu    sync.RWMutex
	user  *model.User
	token string

	obsMu     sync.Mutex
	observers []*subscription
}

// New creates a Store. Call Init to restore a persisted session.
func New(st storage.Store, backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{
		storage: st,
		backend: backend,
		log:     log.WithField("component", "session"),
		now:     time.Now,
	}
}

// Init restores identity and token from durable storage. Malformed or
// expired data is discarded and treated as no session. It reports whether a
// session was restored.
func (s *Store) Init() bool {
	rawUser, errUser := s.storage.Get(KeyUser)
	token, errToken := s.storage.Get(KeyToken)
	if errUser != nil || errToken != nil {
		for _, err := range []error{errUser, errToken} {
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.log.WithError(err).Warn("reading stored session")
			}
		}
		return false
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID.IsZero() || token == "" {
		s.log.Debug("discarding malformed stored session")
		s.clearStorage()
		return false
	}
	if s.expired(token) {
		s.log.Debug("discarding expired stored session")
		s.clearStorage()
		return false
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.mu.Unlock()

	s.log.WithField("user_id", user.ID).Debug("session restored")
	s.broadcast(Event{Kind: Restored, User: copyUser(&user)})
	return true
}

// expired reports whether token is a JWT whose exp claim has passed. The
// signature is not checked; tokens that are not JWTs never expire here.
func (s *Store) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time)
}

// Login authenticates with the backend. On failure any stored credentials
// and the current identity are cleared.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	log := s.log.WithField("email", email)

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		log.WithError(err).Warn("login failed")
		if s.clear() {
			s.broadcast(Event{Kind: LoggedOut})
		}
		return false
	}

	s.establish(resp)
	log.WithField("user_id", resp.User.ID).Debug("logged in")
	s.broadcast(Event{Kind: LoggedIn, User: copyUser(resp.User)})
	return true
}

// Register validates reg locally, then creates the identity on the backend.
// An invalid form never reaches the network. Failure leaves any stored
// session untouched.
func (s *Store) Register(ctx context.Context, reg *forms.Registration) bool {
	if err := reg.Validate(); err != nil {
		s.log.WithField("reason", err.Error()).Debug("registration rejected locally")
		return false
	}

	resp, err := s.backend.Register(ctx, reg.Request())
	if err != nil {
		s.log.WithError(err).Warn("registration failed")
		return false
	}

	s.establish(resp)
	s.log.WithField("user_id", resp.User.ID).Debug("registered")
	s.broadcast(Event{Kind: Registered, User: copyUser(resp.User)})
	return true
}

// Logout clears identity and storage and broadcasts LoggedOut.
func (s *Store) Logout() {
	s.clear()
	s.log.Debug("logged out")
	s.broadcast(Event{Kind: LoggedOut})
}

// Current returns a copy of the authenticated identity, or nil.
func (s *Store) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// Token returns the bearer token, or "" without a session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether both an identity and a token are held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// IsAdmin reports whether the current identity is an administrator.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin()
}

// Subscribe registers o for session events. The returned func removes it.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	sub := &subscription{observer: o}
	s.obsMu.Lock()
	s.observers = append(s.observers, sub)
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, other := range s.observers {
				if other == sub {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) broadcast(e Event) {
	s.obsMu.Lock()
	subs := make([]*subscription, len(s.observers))
	copy(subs, s.observers)
	s.obsMu.Unlock()

	for _, sub := range subs {
		sub.observer.HandleSessionEvent(e)
	}
}

func (s *Store) establish(resp *api.AuthResponse) {
	user := copyUser(resp.User)

	s.mu.Lock()
	s.user = user
	s.token = resp.Token
	s.mu.Unlock()

	data, err := json.Marshal(user)
	if err != nil {
		s.log.WithError(err).Warn("encoding session identity")
		return
	}
	if err := s.storage.Set(KeyUser, string(data)); err != nil {
		s.log.WithError(err).Warn("persisting session identity")
	}
	if err := s.storage.Set(KeyToken, resp.Token); err != nil {
		s.log.WithError(err).Warn("persisting session token")
	}
}

// clear drops the in-memory identity and the stored keys. It reports
// whether an identity was held.
func (s *Store) clear() bool {
	s.mu.Lock()
	had := s.user != nil
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.clearStorage()
	return had
}

func (s *Store) clearStorage() {
	for _, key := range []string{KeyUser, KeyToken} {
		if err := s.storage.Remove(key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("clearing stored session")
		}
	}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
