package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/clients/backend"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/domain/token"
	"moviehub/proj/internal/lib/listeners"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage"
	"strings"
	"sync"
	"time"

	govalidator "github.com/go-playground/validator/v10"
)

type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
}

// Authorizer carries the default credentials of the backend client.
type Authorizer interface {
	SetAuthorization(raw string)
	ClearAuthorization()
	Observe(fn func(err error)) (remove func())
}

type State struct {
	Loading       bool         `json:"loading"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
	// Seq orders states; a subscriber seeing a lower Seq than one it
	// already applied must drop it.
	Seq uint64 `json:"seq"`
}

type Session struct {
	log        *slog.Logger
	backend    Backend
	authorizer Authorizer
	kv         storage.KV
	notifier   notices.Notifier
	validator  *govalidator.Validate
	now        func() time.Time

	mu        sync.RWMutex
	state     State
	seq       uint64
	token     string
	detach    func()
	listeners listeners.Set[State]
}

func New(
	log *slog.Logger,
	backend Backend,
	authorizer Authorizer,
	kv storage.KV,
	notifier notices.Notifier,
	validator *govalidator.Validate,
) *Session {
	return &Session{
		log:        log,
		backend:    backend,
		authorizer: authorizer,
		kv:         kv,
		notifier:   notifier,
		validator:  validator,
		now:        time.Now,
		state:      State{Loading: true},
	}
}

// Init restores the session from the persisted token and starts observing
// backend failures. Loading stays true until Init returns.
func (s *Session) Init(ctx context.Context) {
	const op = "auth.Session.Init"
	log := s.log.With("op", op)

	raw, err := storage.GetString(ctx, s.kv, storage.KeyToken)
	if err != nil {
		log.Warn("Error reading persisted token", "errMsg", err.Error())
		raw = ""
	}
	var claims *token.Claims
	if raw != "" {
		claims, err = token.Check(raw, s.now())
		if err != nil {
			log.Info("discarding persisted token", "reason", err.Error())
			if err := s.kv.Delete(ctx, storage.KeyToken); err != nil {
				log.Error("Error removing persisted token", "errMsg", err.Error())
			}
			raw = ""
		}
	}

	s.mu.Lock()
	if s.detach == nil {
		s.detach = s.authorizer.Observe(s.HandleResponseError)
	}
	var state State
	if raw == "" {
		s.token = ""
		state = s.set(State{})
	} else {
		s.token = raw
		state = s.set(State{Authenticated: true, User: claims.User()})
	}
	s.mu.Unlock()

	if raw != "" {
		s.authorizer.SetAuthorization(raw)
		log.Info("session restored", "user_id", state.User.ID)
	}
	s.listeners.Notify(state)
}

// Dispose detaches the response observer and drops all listeners.
func (s *Session) Dispose() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()
	if detach != nil {
		detach()
	}
	s.listeners.Clear()
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	const op = "auth.Session.Login"
	creds := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	log := s.log.With("op", op, "email", creds.Email)
	if err := validator.Check(s.validator, creds); err != nil {
		return err
	}
	raw, err := s.backend.Login(ctx, creds)
	if err != nil {
		log.Info("login rejected", "errMsg", err.Error())
		s.notifier.Notify(notices.LevelError, "Invalid credentials")
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidCredentials, err))
	}
	if err := s.establish(ctx, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("signed in")
	s.notifier.Notify(notices.LevelSuccess, "Signed in")
	return nil
}

func (s *Session) Register(ctx context.Context, email, password string) error {
	const op = "auth.Session.Register"
	reg := models.Registration{Email: strings.TrimSpace(email), Password: password}
	log := s.log.With("op", op, "email", reg.Email)
	if err := validator.Check(s.validator, reg); err != nil {
		return err
	}
	raw, err := s.backend.Register(ctx, reg)
	if err != nil {
		log.Info("registration rejected", "errMsg", err.Error())
		msg := "Could not register user"
		if errors.Is(err, backend.ErrBadRequest) && backend.Message(err) != "" {
			msg = backend.Message(err)
		}
		s.notifier.Notify(notices.LevelError, msg)
		return fmt.Errorf("%s: %w", op, errors.Join(ErrRegistrationFailed, err))
	}
	if err := s.establish(ctx, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("registered")
	s.notifier.Notify(notices.LevelSuccess, "Account created")
	return nil
}

// establish adopts a freshly issued token. The state is left unchanged when
// the token does not decode or cannot be persisted.
func (s *Session) establish(ctx context.Context, raw string) error {
	claims, err := token.Check(raw, s.now())
	if err != nil {
		s.log.Warn("backend issued an unusable token", "errMsg", err.Error())
		s.notifier.Notify(notices.LevelError, "Invalid token")
		return errors.Join(ErrInvalidToken, err)
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyToken, raw); err != nil {
		s.log.Error("Error persisting token", "errMsg", err.Error())
		s.notifier.Notify(notices.LevelError, "Could not save session")
		return err
	}
	s.authorizer.SetAuthorization(raw)

	s.mu.Lock()
	s.token = raw
	state := s.set(State{Authenticated: true, User: claims.User()})
	s.mu.Unlock()
	s.listeners.Notify(state)
	return nil
}

// Logout forgets the session locally. It never calls the backend and is
// safe to call when already signed out.
func (s *Session) Logout(ctx context.Context) {
	if s.clear(ctx) {
		s.notifier.Notify(notices.LevelInfo, "Signed out")
	}
}

func (s *Session) clear(ctx context.Context) (changed bool) {
	const op = "auth.Session.clear"
	log := s.log.With("op", op)

	if err := s.kv.Delete(ctx, storage.KeyToken); err != nil {
		log.Error("Error removing persisted token", "errMsg", err.Error())
	}
	s.authorizer.ClearAuthorization()

	s.mu.Lock()
	changed = s.state.Authenticated
	s.token = ""
	state := s.set(State{})
	s.mu.Unlock()

	if changed {
		log.Info("signed out")
		s.listeners.Notify(state)
	}
	return changed
}

// HandleResponseError signs the user out when the backend rejects the
// session. Expired default tokens were already announced by the client.
func (s *Session) HandleResponseError(err error) {
	if !errors.Is(err, backend.ErrUnauthorized) || !s.IsAuthenticated() {
		return
	}
	if !s.clear(context.Background()) {
		return
	}
	if !errors.Is(err, backend.ErrSessionExpired) {
		s.notifier.Notify(notices.LevelWarning, "Your session expired")
	}
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	user := *s.state.User
	return &user
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// set adopts next under a new sequence number. Callers hold s.mu.
func (s *Session) set(next State) State {
	s.seq++
	next.Seq = s.seq
	s.state = next
	return next
}

// Subscribe registers fn for every state transition.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}
