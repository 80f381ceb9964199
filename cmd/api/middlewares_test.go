package main

import (
	"context"
	"moviehub/proj/internal/domain/models"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequiredAuthenticatedUser(t *testing.T) {
	app := NewTestApplication(nil, t)
	t.Run("authenticated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request = request.WithContext(context.WithValue(request.Context(), CtxKeyUser, &models.User{
			ID:    "u1",
			Role:  models.RoleUser,
			Email: "test@gmail.com",
		}))
		app.requireAuthenticatedUser(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("anonymous", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request = request.WithContext(context.WithValue(request.Context(), CtxKeyUser, models.AnonymousUser))
		app.requireAuthenticatedUser(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"redirect":"/login"`)
	})
	t.Run("no user in context", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		app.requireAuthenticatedUser(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequireRole(t *testing.T) {
	app := NewTestApplication(nil, t)
	testUser := &models.User{
		ID:    "u1",
		Role:  models.RoleOwner,
		Email: "test@gmail.com",
	}
	t.Run("Owner", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request = request.WithContext(context.WithValue(request.Context(), CtxKeyUser, testUser))
		app.requireRole(models.RoleOwner)(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("Admin is not owner", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		admin := *testUser
		admin.Role = models.RoleAdmin
		request = request.WithContext(context.WithValue(request.Context(), CtxKeyUser, &admin))
		app.requireRole(models.RoleOwner)(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"redirect":"/unauthorized"`)
	})
}

func TestRecoverer(t *testing.T) {
	app := NewTestApplication(nil, t)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	app.Recoverer(panicking).ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "close", recorder.Header().Get("Connection"))
}

func TestRateLimiter(t *testing.T) {
	app := NewTestApplication(nil, t)
	app.cfg.Limiter.Enabled = true
	handler := app.RateLimiter(okHandler())
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientLimiterSweepsIdleClients(t *testing.T) {
	limiter := newClientLimiter(1, 1, 5*time.Minute)
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, limiter.allow("10.0.0.1", t0))
	assert.False(t, limiter.allow("10.0.0.1", t0))
	assert.True(t, limiter.allow("10.0.0.2", t0.Add(time.Minute)))
	assert.Len(t, limiter.clients, 2)

	assert.True(t, limiter.allow("10.0.0.2", t0.Add(6*time.Minute)))
	assert.Len(t, limiter.clients, 1)
	assert.NotContains(t, limiter.clients, "10.0.0.1")
}

func TestCORSPreflight(t *testing.T) {
	h := NewTestApplication(nil, t).routes()
	preflight := func(origin string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
		request.Header.Set("Origin", origin)
		request.Header.Set("Access-Control-Request-Method", http.MethodPost)
		h.ServeHTTP(recorder, request)
		return recorder
	}
	allowed := preflight("http://localhost:5173")
	assert.Equal(t, http.StatusNoContent, allowed.Code)
	assert.Equal(t, "http://localhost:5173", allowed.Header().Get("Access-Control-Allow-Origin"))

	denied := preflight("http://evil.example")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}
