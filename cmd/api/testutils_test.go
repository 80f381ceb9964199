package main

import (
	"context"
	"encoding/json"
	"io"
	"moviehub/proj/internal/config"
	"moviehub/proj/internal/services"
	"moviehub/proj/internal/storage/memory"
	"moviehub/proj/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// NewTestApplication returns an initialised application talking to backend.
// A nil backend answers every call with 404.
func NewTestApplication(backend http.Handler, t *testing.T) *Application {
	t.Helper()
	if backend == nil {
		backend = http.NotFoundHandler()
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		API:     config.API{BaseURL: srv.URL + "/api", Timeout: time.Second},
		Notices: config.Notices{Capacity: 20},
		Limiter: config.Limiter{Enabled: false, Rps: 2, Burst: 2},
		CORS:    config.CORS{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	log := testutil.Logger()
	svc, err := services.New(log, cfg, memory.New())
	require.NoError(t, err)
	require.NoError(t, svc.Init(context.Background()))
	t.Cleanup(svc.Dispose)
	return NewApplication(cfg, log, svc)
}

type apiResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}
