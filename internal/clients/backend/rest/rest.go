package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"moviehub/proj/internal/clients/backend"
	"moviehub/proj/internal/domain/token"
	"moviehub/proj/internal/lib/listeners"
	"moviehub/proj/internal/notices"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 10 * time.Second
	ProfileHeader  = "x-profile-id"
	maxErrorBody   = 1 << 20
)

// Observer is called for every failed call with a *backend.ResponseError.
type Observer = func(err error)

type Client struct {
	log      *slog.Logger
	baseURL  *url.URL
	http     *http.Client
	notifier notices.Notifier
	now      func() time.Time

	mu        sync.RWMutex
	token     string
	profileID string
	observers listeners.Set[error]
}

/*
New creates a catalog backend client.

baseURL is the API root (e.g. http://localhost:3000/api), timeout bounds
every call; a zero timeout falls back to DefaultTimeout.
*/
func New(log *slog.Logger, notifier notices.Notifier, baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		log:      log,
		baseURL:  u,
		http:     &http.Client{Timeout: timeout},
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// SetAuthorization sets the default bearer token for subsequent calls.
func (c *Client) SetAuthorization(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = raw
}

func (c *Client) ClearAuthorization() {
	c.SetAuthorization("")
}

func (c *Client) Authorization() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetProfileID sets the active profile header, "" removes it.
func (c *Client) SetProfileID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profileID = id
}

// Observe registers fn for failed calls and returns a function removing it.
func (c *Client) Observe(fn Observer) (remove func()) {
	return c.observers.Add(fn)
}

func (c *Client) emit(err error) {
	c.observers.Notify(err)
}

// decorate attaches credentials. An expired default token is dropped before
// it reaches the wire.
func (c *Client) decorate(req *http.Request) {
	c.mu.Lock()
	raw, profileID := c.token, c.profileID
	expired := raw != "" && !token.Valid(raw, c.now())
	if expired {
		c.token = ""
	}
	c.mu.Unlock()

	switch {
	case expired:
		c.notifier.Notify(notices.LevelInfo, "Session expired. Please sign in again.")
		c.emit(&backend.ResponseError{Status: http.StatusUnauthorized, Kind: backend.ErrSessionExpired})
	case raw != "":
		req.Header.Set("Authorization", "Bearer "+raw)
	}
	if profileID != "" {
		req.Header.Set(ProfileHeader, profileID)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dst any) error {
	const op = "rest.Client.do"
	log := c.log.With("op", op, "method", method, "path", path)

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("backend unreachable", "err", err)
		return c.fail(&backend.ResponseError{Kind: backend.ErrConnectivity, Err: err})
	}
	defer resp.Body.Close()

	if kind := backend.Classify(resp.StatusCode); kind != nil {
		msg := readMessage(resp.Body)
		log.Info("backend call failed", "status", resp.StatusCode, "message", msg)
		return c.fail(&backend.ResponseError{Status: resp.StatusCode, Message: msg, Kind: kind})
	}
	if dst == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := render.DecodeJSON(resp.Body, dst); err != nil {
		log.Error("Error decoding backend response", "errMsg", err.Error())
		return c.fail(&backend.ResponseError{Status: resp.StatusCode, Kind: backend.ErrServer, Err: err})
	}
	return nil
}

// fail surfaces the notice for the failure class and informs observers.
// 401 is left to the session observer.
func (c *Client) fail(rerr *backend.ResponseError) error {
	switch {
	case errors.Is(rerr, backend.ErrConnectivity):
		c.notifier.Notify(notices.LevelError, "Could not connect to the server.")
	case errors.Is(rerr, backend.ErrForbidden):
		c.notifier.Notify(notices.LevelError, "You are not allowed to perform this action.")
	case errors.Is(rerr, backend.ErrBadRequest) && rerr.Status == http.StatusBadRequest && rerr.Message != "":
		c.notifier.Notify(notices.LevelError, rerr.Message)
	case errors.Is(rerr, backend.ErrServer):
		c.notifier.Notify(notices.LevelError, "Internal server error.")
	}
	c.emit(rerr)
	return rerr
}

func readMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
