package auth

import (
	"context"
	"errors"
	"moviehub/proj/internal/clients/backend"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/lib/listeners"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage"
	"moviehub/proj/internal/testutil"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	token string
	err   error
	calls int
}

func (b *fakeBackend) Login(ctx context.Context, creds models.Credentials) (string, error) {
	b.calls++
	return b.token, b.err
}

func (b *fakeBackend) Register(ctx context.Context, reg models.Registration) (string, error) {
	b.calls++
	return b.token, b.err
}

type fakeAuthorizer struct {
	token     string
	observers listeners.Set[error]
}

func (a *fakeAuthorizer) SetAuthorization(raw string) { a.token = raw }
func (a *fakeAuthorizer) ClearAuthorization()         { a.token = "" }
func (a *fakeAuthorizer) Observe(fn func(err error)) func() {
	return a.observers.Add(fn)
}

type env struct {
	session    *Session
	backend    *fakeBackend
	authorizer *fakeAuthorizer
	kv         *testutil.KV
	notices    *testutil.Notices
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		backend:    &fakeBackend{},
		authorizer: &fakeAuthorizer{},
		kv:         testutil.NewKV(),
		notices:    &testutil.Notices{},
	}
	e.session = New(testutil.Logger(), e.backend, e.authorizer, e.kv, e.notices, validator.New())
	return e
}

func TestInit(t *testing.T) {
	ctx := context.Background()
	t.Run("no persisted token", func(t *testing.T) {
		e := newEnv(t)
		assert.True(t, e.session.Loading())
		e.session.Init(ctx)
		assert.False(t, e.session.Loading())
		assert.False(t, e.session.IsAuthenticated())
		assert.Nil(t, e.session.User())
	})
	t.Run("valid persisted token", func(t *testing.T) {
		e := newEnv(t)
		raw := testutil.Token(t, "u1", "owner", time.Hour)
		require.NoError(t, storage.SetJSON(ctx, e.kv, storage.KeyToken, raw))
		e.session.Init(ctx)
		assert.True(t, e.session.IsAuthenticated())
		assert.Equal(t, "u1", e.session.User().ID)
		assert.Equal(t, models.RoleOwner, e.session.User().Role)
		assert.Equal(t, raw, e.authorizer.token)
	})
	t.Run("expired persisted token is removed", func(t *testing.T) {
		e := newEnv(t)
		raw := testutil.Token(t, "u1", "user", -time.Hour)
		require.NoError(t, storage.SetJSON(ctx, e.kv, storage.KeyToken, raw))
		e.session.Init(ctx)
		assert.False(t, e.session.IsAuthenticated())
		_, err := e.kv.Get(ctx, storage.KeyToken)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("garbage persisted token is removed", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, storage.SetJSON(ctx, e.kv, storage.KeyToken, "not.a.jwt"))
		e.session.Init(ctx)
		assert.False(t, e.session.IsAuthenticated())
		_, err := e.kv.Get(ctx, storage.KeyToken)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	t.Run("validation happens before the backend call", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(ctx)
		err := e.session.Login(ctx, "not-an-email", "")
		var verr *validator.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
		assert.Zero(t, e.backend.calls)
	})
	t.Run("success", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(ctx)
		var states []State
		e.session.Subscribe(func(s State) { states = append(states, s) })
		e.backend.token = testutil.Token(t, "u1", "user", time.Hour)

		require.NoError(t, e.session.Login(ctx, " a@b.io ", "secret"))
		assert.True(t, e.session.IsAuthenticated())
		assert.Equal(t, "u1", e.session.User().ID)
		assert.Equal(t, e.backend.token, e.authorizer.token)
		persisted, err := storage.GetString(ctx, e.kv, storage.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, e.backend.token, persisted)
		assert.True(t, e.notices.Has(notices.LevelSuccess, "Signed in"))
		require.Len(t, states, 1)
		assert.True(t, states[0].Authenticated)
	})
	t.Run("backend rejects", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(ctx)
		e.backend.err = &backend.ResponseError{Status: http.StatusUnauthorized, Kind: backend.ErrUnauthorized}
		err := e.session.Login(ctx, "a@b.io", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, backend.ErrUnauthorized)
		assert.False(t, e.session.IsAuthenticated())
		assert.True(t, e.notices.Has(notices.LevelError, "Invalid credentials"))
	})
	t.Run("invalid token", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(ctx)
		e.backend.token = "garbage"
		err := e.session.Login(ctx, "a@b.io", "secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, e.session.IsAuthenticated())
		assert.Empty(t, e.authorizer.token)
		assert.True(t, e.notices.Has(notices.LevelError, "Invalid token"))
	})
	t.Run("persistence failure leaves state unchanged", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(ctx)
		e.backend.token = testutil.Token(t, "u1", "user", time.Hour)
		e.kv.FailWrites(true)
		err := e.session.Login(ctx, "a@b.io", "secret")
		assert.ErrorIs(t, err, testutil.ErrWriteFailed)
		assert.False(t, e.session.IsAuthenticated())
		assert.Empty(t, e.authorizer.token)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	t.Run("short password", func(t *testing.T) {
		e := newEnv(t)
		err := e.session.Register(ctx, "a@b.io", "123")
		var verr *validator.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "password")
		assert.Zero(t, e.backend.calls)
	})
	t.Run("backend message is surfaced", func(t *testing.T) {
		e := newEnv(t)
		e.backend.err = &backend.ResponseError{Status: 400, Message: "email already taken", Kind: backend.ErrBadRequest}
		err := e.session.Register(ctx, "a@b.io", "secret")
		assert.ErrorIs(t, err, ErrRegistrationFailed)
		assert.True(t, e.notices.Has(notices.LevelError, "email already taken"))
	})
	t.Run("generic failure", func(t *testing.T) {
		e := newEnv(t)
		e.backend.err = &backend.ResponseError{Kind: backend.ErrConnectivity, Err: errors.New("dial")}
		e.session.Register(ctx, "a@b.io", "secret")
		assert.True(t, e.notices.Has(notices.LevelError, "Could not register user"))
	})
	t.Run("success signs in", func(t *testing.T) {
		e := newEnv(t)
		e.backend.token = testutil.Token(t, "u2", "user", time.Hour)
		require.NoError(t, e.session.Register(ctx, "new@b.io", "secret"))
		assert.True(t, e.session.IsAuthenticated())
		assert.Equal(t, "u2", e.session.User().ID)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.backend.token = testutil.Token(t, "u1", "user", time.Hour)
	e.session.Init(ctx)
	require.NoError(t, e.session.Login(ctx, "a@b.io", "secret"))

	transitions := 0
	e.session.Subscribe(func(State) { transitions++ })
	e.session.Logout(ctx)
	e.session.Logout(ctx)

	assert.False(t, e.session.IsAuthenticated())
	assert.Nil(t, e.session.User())
	assert.Empty(t, e.authorizer.token)
	assert.Empty(t, e.session.Token())
	_, err := e.kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, transitions)
	signedOut := 0
	for _, msg := range e.notices.Messages() {
		if msg == "Signed out" {
			signedOut++
		}
	}
	assert.Equal(t, 1, signedOut)
}

func TestUnauthorizedResponseSignsOut(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.backend.token = testutil.Token(t, "u1", "user", time.Hour)
	e.session.Init(ctx)
	require.NoError(t, e.session.Login(ctx, "a@b.io", "secret"))

	e.authorizer.observers.Notify(&backend.ResponseError{Status: http.StatusForbidden, Kind: backend.ErrForbidden})
	assert.True(t, e.session.IsAuthenticated())

	e.authorizer.observers.Notify(&backend.ResponseError{Status: http.StatusUnauthorized, Kind: backend.ErrUnauthorized})
	assert.False(t, e.session.IsAuthenticated())
	assert.True(t, e.notices.Has(notices.LevelWarning, "Your session expired"))
}

func TestExpiredDefaultTokenSignsOutQuietly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.backend.token = testutil.Token(t, "u1", "user", time.Hour)
	e.session.Init(ctx)
	require.NoError(t, e.session.Login(ctx, "a@b.io", "secret"))

	e.authorizer.observers.Notify(&backend.ResponseError{Status: http.StatusUnauthorized, Kind: backend.ErrSessionExpired})
	assert.False(t, e.session.IsAuthenticated())
	assert.False(t, e.notices.Has(notices.LevelWarning, "Your session expired"))
}

func TestDisposeDetachesObserver(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.session.Init(ctx)
	assert.Equal(t, 1, e.authorizer.observers.Len())
	e.session.Init(ctx)
	assert.Equal(t, 1, e.authorizer.observers.Len())
	e.session.Dispose()
	assert.Zero(t, e.authorizer.observers.Len())
}
