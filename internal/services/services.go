package services

import (
	"context"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/clients/backend/rest"
	"moviehub/proj/internal/config"
	"moviehub/proj/internal/lib/tasks"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/services/auth"
	"moviehub/proj/internal/services/gating"
	"moviehub/proj/internal/services/movies"
	"moviehub/proj/internal/services/profiles"
	"moviehub/proj/internal/services/theme"
	"moviehub/proj/internal/services/watchlist"
	"moviehub/proj/internal/storage"
	"sync"
	"time"
)

// Services wires the client stores into one pipeline: the session drives the
// profile directory, the directory drives the movie catalog.
type Services struct {
	log *slog.Logger

	Client    *rest.Client
	Notices   *notices.Queue
	Auth      *auth.Session
	Profiles  *profiles.Directory
	Movies    *movies.Catalog
	Watchlist *watchlist.Store
	Theme     *theme.Store
	Tasks     *tasks.Pool

	tasksTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	unsubscribe []func()
}

func New(log *slog.Logger, cfg *config.Config, kv storage.KV) (*Services, error) {
	queue := notices.NewQueue(log, cfg.Notices.Capacity)
	client, err := rest.New(log, queue, cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	v := validator.New()
	ctx, cancel := context.WithCancel(context.Background())
	return &Services{
		log:       log,
		Client:    client,
		Notices:   queue,
		Auth:      auth.New(log, client, client, kv, queue, v),
		Profiles:  profiles.New(log, client, kv, queue, v),
		Movies:    movies.New(log, client, queue, v),
		Watchlist: watchlist.New(log, kv, queue),
		Theme:     theme.New(log, kv),
		Tasks:     tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize),

		tasksTimeout: cfg.Tasks.ShutdownTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Init subscribes the stages to each other, then restores local state and
// the session. Restoring a session runs the whole pipeline before Init
// returns.
func (s *Services) Init(ctx context.Context) error {
	const op = "services.Services.Init"
	log := s.log.With("op", op)

	s.mu.Lock()
	s.unsubscribe = append(s.unsubscribe,
		s.Auth.Subscribe(s.onAuth),
		s.Profiles.Subscribe(s.onProfiles),
	)
	s.mu.Unlock()
	s.Tasks.Run()

	if err := s.Watchlist.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Theme.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.Auth.Init(ctx)
	log.Info("client state restored", "authenticated", s.Auth.IsAuthenticated())
	return nil
}

func (s *Services) onAuth(state auth.State) {
	if state.Loading {
		return
	}
	userID := ""
	if state.Authenticated && state.User != nil {
		userID = state.User.ID
	}
	if err := s.Profiles.HandleAuthChange(s.ctx, state.Seq, userID); err != nil {
		s.log.Debug("profiles stage failed", "errMsg", err.Error())
	}
}

func (s *Services) onProfiles(state profiles.State) {
	if err := s.Movies.HandleProfileChange(s.ctx, state.Seq, state.Active, state.Loading); err != nil {
		s.log.Debug("movies stage failed", "errMsg", err.Error())
	}
}

// Gate evaluates the gating policy against the current store state.
func (s *Services) Gate(path string) gating.Decision {
	authState := s.Auth.State()
	profileState := s.Profiles.State()
	return gating.Decide(gating.Input{
		AuthLoading:     authState.Loading,
		Authenticated:   authState.Authenticated,
		ProfilesLoading: profileState.Loading,
		Profiles:        profileState.Profiles,
		Active:          profileState.Active,
		Path:            path,
	})
}

// ReconcileProfilesLater refetches the directory in the background after an
// optimistic create. Nothing is scheduled when the directory is in sync.
func (s *Services) ReconcileProfilesLater() {
	const op = "services.Services.ReconcileProfilesLater"
	log := s.log.With("op", op)
	if !s.Profiles.Optimistic() {
		return
	}
	err := s.Tasks.Add(func(ctx context.Context) {
		if err := s.Profiles.Reconcile(ctx); err != nil {
			log.Warn("Error reconciling profiles", "errMsg", err.Error())
		}
	})
	if err != nil {
		log.Warn("Reconcile not scheduled", "errMsg", err.Error())
	}
}

// Dispose drains background tasks, cancels in-flight pipeline work and
// detaches every subscription.
func (s *Services) Dispose() {
	timeout := s.tasksTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	s.Tasks.Shutdown(ctx)
	cancel()
	s.cancel()
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	for _, fn := range unsubscribe {
		fn()
	}
	s.Auth.Dispose()
	s.Profiles.Dispose()
	s.Movies.Dispose()
}
