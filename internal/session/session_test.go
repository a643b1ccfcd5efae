package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agmortgage/agbank/internal/api"
	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/model"
	"github.com/agmortgage/agbank/internal/storage"
)

type fakeBackend struct {
	loginCalls    int
	registerCalls int
	lastEmail     string
	lastRegister  forms.RegisterRequest

	resp *api.AuthResponse
	err  error
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*api.AuthResponse, error) {
	f.loginCalls++
	f.lastEmail = email
	return f.resp, f.err
}

func (f *fakeBackend) Register(_ context.Context, req forms.RegisterRequest) (*api.AuthResponse, error) {
	f.registerCalls++
	f.lastRegister = req
	return f.resp, f.err
}

type recorder struct {
	events []Event
}

func (r *recorder) HandleSessionEvent(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []Kind {
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func ada() *model.User {
	return &model.User{ID: "u1", Profile: model.Profile{Email: "a@b.com", FirstName: "Ada"}, Role: model.RoleUser, IsActive: true}
}

func setup(t *testing.T) (*Store, *fakeBackend, *storage.MemoryStore, *recorder) {
	t.Helper()
	backend := &fakeBackend{resp: &api.AuthResponse{User: ada(), Token: "tok-1"}}
	st := storage.NewMemoryStore()
	s := New(st, backend, nil)
	rec := &recorder{}
	s.Subscribe(rec)
	return s, backend, st, rec
}

func TestLogin_Success(t *testing.T) {
	s, backend, st, rec := setup(t)

	ok := s.Login(context.Background(), "  A@B.com ", "Secret1!")
	require.True(t, ok)

	assert.Equal(t, "a@b.com", backend.lastEmail)
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
	assert.Equal(t, "tok-1", s.Token())
	assert.Equal(t, "Ada", s.Current().FirstName)

	token, err := st.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	rawUser, err := st.Get(KeyUser)
	require.NoError(t, err)
	var stored model.User
	require.NoError(t, json.Unmarshal([]byte(rawUser), &stored))
	assert.Equal(t, "u1", stored.ID.String())

	require.Equal(t, []Kind{LoggedIn}, rec.kinds())
	assert.Equal(t, "u1", rec.events[0].User.ID.String())
}

func TestLogin_FailureClearsStaleSession(t *testing.T) {
	s, backend, st, rec := setup(t)
	require.True(t, s.Login(context.Background(), "a@b.com", "Secret1!"))

	backend.err = &api.Error{StatusCode: 401, Message: "Invalid credentials"}
	ok := s.Login(context.Background(), "a@b.com", "wrong")
	assert.False(t, ok)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Current())
	_, err := st.Get(KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = st.Get(KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, []Kind{LoggedIn, LoggedOut}, rec.kinds())
}

func TestLogin_FailureWithoutSessionIsQuiet(t *testing.T) {
	s, backend, st, rec := setup(t)
	require.NoError(t, st.Set(KeyToken, "stale"))
	backend.err = errors.New("connection refused")

	assert.False(t, s.Login(context.Background(), "a@b.com", "x"))
	_, err := st.Get(KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, rec.events)
}

func validRegistration() *forms.Registration {
	return &forms.Registration{
		Profile: model.Profile{
			Email:                  "a@b.com",
			FirstName:              "Ada",
			LastName:               "Obi",
			PhoneNumber:            "08030000000",
			DateOfBirth:            "1990-04-01",
			Gender:                 model.GenderFemale,
			MaritalStatus:          model.MaritalSingle,
			Occupation:             "Engineer",
			Employer:               "Acme",
			MonthlyIncome:          decimal.NewFromInt(350000),
			Address:                model.Address{Street: "1 Marina", City: "Lagos", State: "Lagos", Country: "Nigeria"},
			NextOfKin:              model.NextOfKin{Name: "Chi Obi", Relationship: "Sister", PhoneNumber: "08031111111"},
			BankVerificationNumber: "22222222222",
		},
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
	}
}

func TestRegister_MismatchRejectedLocally(t *testing.T) {
	s, backend, _, rec := setup(t)
	reg := validRegistration()
	reg.ConfirmPassword = "Secret2!"

	assert.False(t, s.Register(context.Background(), reg))
	assert.Zero(t, backend.registerCalls)
	assert.Empty(t, rec.events)

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

func TestRegister_Success(t *testing.T) {
	s, backend, st, rec := setup(t)

	require.True(t, s.Register(context.Background(), validRegistration()))
	assert.Equal(t, 1, backend.registerCalls)
	assert.Equal(t, "Secret1!", backend.lastRegister.Password)
	assert.Equal(t, []Kind{Registered}, rec.kinds())

	token, err := st.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestRegister_FailureKeepsStorage(t *testing.T) {
	s, backend, st, _ := setup(t)
	require.True(t, s.Login(context.Background(), "a@b.com", "Secret1!"))

	backend.err = &api.Error{StatusCode: 409, Message: "Email already registered"}
	assert.False(t, s.Register(context.Background(), validRegistration()))

	token, err := st.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.True(t, s.IsAuthenticated())
}

func TestLogout(t *testing.T) {
	s, _, st, rec := setup(t)
	require.True(t, s.Login(context.Background(), "a@b.com", "Secret1!"))

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	_, err := st.Get(KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, []Kind{LoggedIn, LoggedOut}, rec.kinds())
	assert.Nil(t, rec.events[1].User)
}

func TestInit(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	fresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		user      string
		token     string
		restored  bool
		keepsKeys bool
	}{
		{"opaque token", `{"id":"u1","email":"a@b.com","role":"admin"}`, "tok-1", true, true},
		{"numeric id", `{"id":17,"email":"a@b.com"}`, "tok-1", true, true},
		{"fresh jwt", `{"id":"u1"}`, fresh, true, true},
		{"expired jwt", `{"id":"u1"}`, expired, false, false},
		{"malformed json", `{"id":`, "tok-1", false, false},
		{"missing id", `{"email":"a@b.com"}`, "tok-1", false, false},
		{"no token", `{"id":"u1"}`, "", false, true},
		{"no user", "", "tok-1", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storage.NewMemoryStore()
			if tt.user != "" {
				require.NoError(t, st.Set(KeyUser, tt.user))
			}
			if tt.token != "" {
				require.NoError(t, st.Set(KeyToken, tt.token))
			}
			s := New(st, &fakeBackend{}, nil)
			rec := &recorder{}
			s.Subscribe(rec)

			assert.Equal(t, tt.restored, s.Init())
			assert.Equal(t, tt.restored, s.IsAuthenticated())
			if tt.restored {
				assert.Equal(t, []Kind{Restored}, rec.kinds())
			} else {
				assert.Empty(t, rec.events)
			}

			_, errUser := st.Get(KeyUser)
			_, errToken := st.Get(KeyToken)
			if !tt.keepsKeys {
				assert.ErrorIs(t, errUser, storage.ErrNotFound)
				assert.ErrorIs(t, errToken, storage.ErrNotFound)
			}
		})
	}
}

func TestInit_AdminRole(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(KeyUser, `{"id":"admin-1","role":"admin"}`))
	require.NoError(t, st.Set(KeyToken, "tok"))
	s := New(st, &fakeBackend{}, nil)

	require.True(t, s.Init())
	assert.True(t, s.IsAdmin())
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s, _, _, _ := setup(t)
	var order []string
	unsubA := s.Subscribe(ObserverFunc(func(Event) { order = append(order, "a") }))
	s.Subscribe(ObserverFunc(func(Event) { order = append(order, "b") }))

	s.Logout()
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA()
	order = nil
	s.Logout()
	assert.Equal(t, []string{"b"}, order)
}

func TestCurrentIsACopy(t *testing.T) {
	s, _, _, _ := setup(t)
	require.True(t, s.Login(context.Background(), "a@b.com", "Secret1!"))

	u := s.Current()
	u.FirstName = "Mallory"
	assert.Equal(t, "Ada", s.Current().FirstName)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "logged-in", LoggedIn.String())
	assert.Equal(t, "logged-out", LoggedOut.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
