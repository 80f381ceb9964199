package rest

import (
	"context"
	"encoding/json"
	"errors"
	"moviehub/proj/internal/clients/backend"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/testutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *testutil.Notices) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := &testutil.Notices{}
	c, err := New(testutil.Logger(), n, srv.URL+"/api/", time.Second)
	require.NoError(t, err)
	return c, n
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New(testutil.Logger(), notices.Discard{}, "/api", 0)
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	raw := testutil.Token(t, "u1", "user", time.Hour)
	var got http.Header
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]map[string]any{{"_id": "p1", "name": "Kids", "maxAgeRating": "PG"}})
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := c.ListProfiles(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got.Get("Authorization"))
		assert.Empty(t, got.Get(ProfileHeader))
		assert.NotEmpty(t, got.Get("X-Request-ID"))
		assert.Equal(t, "/api/profiles", gotPath)
	})
	t.Run("authorized with profile", func(t *testing.T) {
		c.SetAuthorization(raw)
		c.SetProfileID("p1")
		profiles, err := c.ListProfiles(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+raw, got.Get("Authorization"))
		assert.Equal(t, "p1", got.Get(ProfileHeader))
		require.Len(t, profiles, 1)
		assert.Equal(t, "p1", string(profiles[0].RawID))
	})
}

func TestExpiredDefaultTokenIsDropped(t *testing.T) {
	var got http.Header
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})
	var observed []error
	c.Observe(func(err error) { observed = append(observed, err) })
	c.SetAuthorization(testutil.Token(t, "u1", "user", -time.Minute))

	require.NoError(t, c.DeleteProfile(context.Background(), "p1"))
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, c.Authorization())
	require.Len(t, observed, 1)
	assert.ErrorIs(t, observed[0], backend.ErrUnauthorized)
	assert.True(t, n.Has(notices.LevelInfo, "Session expired. Please sign in again."))
}

func TestStatusClassification(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantNotice string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"jwt expired"}`, backend.ErrUnauthorized, ""},
		{"forbidden", http.StatusForbidden, `{}`, backend.ErrForbidden, "You are not allowed to perform this action."},
		{"bad request", http.StatusBadRequest, `{"message":"title is required"}`, backend.ErrBadRequest, "title is required"},
		{"bad request without message", http.StatusBadRequest, ``, backend.ErrBadRequest, ""},
		{"not found", http.StatusNotFound, `{"error":"movie not found"}`, backend.ErrNotFound, ""},
		{"server", http.StatusBadGateway, `<html>`, backend.ErrServer, "Internal server error."},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			var observed error
			c.Observe(func(err error) { observed = err })

			_, err := c.CreateMovie(context.Background(), models.MovieInput{Title: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantKind)
			assert.Equal(t, err, observed)

			var rerr *backend.ResponseError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tc.status, rerr.Status)
			if tc.wantNotice == "" {
				assert.Empty(t, n.All())
				return
			}
			assert.True(t, n.Has(notices.LevelError, tc.wantNotice), n.Messages())
		})
	}
}

func TestConnectivityErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()
		n := &testutil.Notices{}
		c, err := New(testutil.Logger(), n, srv.URL, 50*time.Millisecond)
		require.NoError(t, err)

		_, err = c.ListMovies(context.Background(), url.Values{"page": {"1"}})
		assert.ErrorIs(t, err, backend.ErrConnectivity)
		assert.True(t, n.Has(notices.LevelError, "Could not connect to the server."))
	})
	t.Run("refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()
		c, err := New(testutil.Logger(), notices.Discard{}, addr, time.Second)
		require.NoError(t, err)
		_, err = c.Login(context.Background(), models.Credentials{Email: "a@b.io", Password: "x"})
		assert.ErrorIs(t, err, backend.ErrConnectivity)
	})
}

func TestObserveRemove(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var mu sync.Mutex
	calls := 0
	remove := c.Observe(func(error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	c.DeleteMovie(context.Background(), "m1")
	remove()
	c.DeleteMovie(context.Background(), "m1")
	assert.Equal(t, 1, calls)
}

func TestEndpoints(t *testing.T) {
	var method, path string
	var query url.Values
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, query = r.Method, r.URL.Path, r.URL.Query()
		body = nil
		json.NewDecoder(r.Body).Decode(&body)
		switch {
		case path == "/api/auth/login" || path == "/api/auth/register":
			json.NewEncoder(w).Encode(map[string]string{"token": "tkn"})
		case path == "/api/movies" && method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"movies":     []map[string]any{{"_id": 7, "title": "Heat", "ageRating": "R"}},
				"totalPages": 4,
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{"_id": "x1", "title": "Heat", "name": "Kids"})
		}
	})
	ctx := context.Background()

	tkn, err := c.Register(ctx, models.Registration{Email: "a@b.io", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tkn", tkn)
	assert.Equal(t, "/api/auth/register", path)
	assert.Equal(t, "a@b.io", body["email"])

	page, err := c.ListMovies(ctx, url.Values{"maxAge": {"PG-13"}})
	require.NoError(t, err)
	assert.Equal(t, "PG-13", query.Get("maxAge"))
	assert.Equal(t, 4, page.TotalPages)
	require.Len(t, page.Movies, 1)
	assert.Equal(t, "7", string(page.Movies[0].RawID))

	movie, err := c.UpdateMovie(ctx, "x1", models.MovieInput{Title: "Heat"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/movies/x1", path)
	assert.Equal(t, "Heat", movie.Title)

	profile, err := c.UpdateProfile(ctx, "x1", models.ProfileInput{Name: "Kids", MaxAgeRating: "PG"})
	require.NoError(t, err)
	assert.Equal(t, "/api/profiles/x1", path)
	assert.Equal(t, "Kids", profile.Name)
}
