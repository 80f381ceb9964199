package movies

import (
	"context"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/domain/filters"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/lib/listeners"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/notices"
	"net/url"
	"slices"
	"sync"
	"time"

	govalidator "github.com/go-playground/validator/v10"
)

const placeholderPoster = "https://picsum.photos/400/300?random=%s-%d"

type Backend interface {
	ListMovies(ctx context.Context, query url.Values) (*models.MoviePage, error)
	CreateMovie(ctx context.Context, in models.MovieInput) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id string, in models.MovieInput) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id string) error
}

type State struct {
	Loading    bool            `json:"loading"`
	Movies     []models.Movie  `json:"movies"`
	TotalPages int             `json:"totalPages"`
	Filters    filters.Filters `json:"filters"`
	Err        error           `json:"-"`
	Seq        uint64          `json:"seq"`
}

// Result is the outcome of one write. Err is the backend failure of this
// call; it is reported here and never as the method's error.
type Result struct {
	Movie *models.Movie
	Err   error
}

// Catalog is the movie list of the active profile.
type Catalog struct {
	log       *slog.Logger
	backend   Backend
	notifier  notices.Notifier
	validator *govalidator.Validate
	now       func() time.Time

	mu              sync.Mutex
	profile         *models.Profile
	profilesLoading bool
	loading         bool
	movies          []models.Movie
	totalPages      int
	filters         filters.Filters
	err             error
	gen             uint64
	seq             uint64
	profileSeq      uint64
	listeners       listeners.Set[State]
}

func New(
	log *slog.Logger,
	backend Backend,
	notifier notices.Notifier,
	validator *govalidator.Validate,
) *Catalog {
	return &Catalog{
		log:        log,
		backend:    backend,
		notifier:   notifier,
		validator:  validator,
		now:        time.Now,
		totalPages: 1,
		filters:    filters.Default(),
	}
}

// Fetch loads a page for the active profile. Without an active profile it
// does nothing.
func (c *Catalog) Fetch(ctx context.Context, f filters.Filters) error {
	const op = "movies.Catalog.Fetch"
	f = f.WithDefaults()
	if err := validator.Check(c.validator, f); err != nil {
		return err
	}

	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	profile := *c.profile
	c.loading = true
	c.filters = f
	state := c.next()
	c.mu.Unlock()
	c.listeners.Notify(state)

	log := c.log.With("op", op, "profile_id", profile.ID, "max_age", profile.MaxAgeRating)
	query, err := f.Query(string(profile.ID), profile.MaxAgeRating.String())
	var page *models.MoviePage
	if err == nil {
		page, err = c.backend.ListMovies(ctx, query)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		log.Debug("dropping stale movies response")
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	c.loading = false
	if err != nil {
		c.movies = nil
		c.totalPages = 1
		c.err = err
		state = c.next()
		c.mu.Unlock()
		log.Error("Error fetching movies", "errMsg", err.Error())
		c.notifier.Notify(notices.LevelError, "Could not load movies")
		c.listeners.Notify(state)
		return fmt.Errorf("%s: %w", op, err)
	}
	for i := range page.Movies {
		page.Movies[i].Normalize()
	}
	c.movies = page.Movies
	c.totalPages = max(page.TotalPages, 1)
	c.err = nil
	state = c.next()
	c.mu.Unlock()

	log.Info("movies loaded", "count", len(page.Movies), "page", f.Page, "total_pages", state.TotalPages)
	c.listeners.Notify(state)
	return nil
}

// Visible returns the held movies the active profile may watch, whether or
// not the backend already filtered them.
func (c *Catalog) Visible() []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible()
}

func (c *Catalog) visible() []models.Movie {
	if c.profile == nil {
		return []models.Movie{}
	}
	limit := c.profile.MaxAgeRating
	out := make([]models.Movie, 0, len(c.movies))
	for _, m := range c.movies {
		if limit.Allows(m.AgeRating) {
			out = append(out, m)
		}
	}
	return out
}

// Get looks id up among the visible movies without fetching. A held movie
// above the active profile's rating is not found.
func (c *Catalog) Get(id string) (*models.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.visible() {
		if m.HasID(id) {
			return &m, nil
		}
	}
	return nil, ErrMovieNotFound
}

// Create adds a movie. A missing poster is replaced by a generated one.
// The returned error carries validation failures only; a backend failure
// yields a nil Result.Movie, Result.Err, a notice and State().Err.
func (c *Catalog) Create(ctx context.Context, in models.MovieInput) (Result, error) {
	const op = "movies.Catalog.Create"
	log := c.log.With("op", op, "title", in.Title, "year", in.Year, "genres", in.Genres)
	if err := validator.Check(c.validator, in); err != nil {
		return Result{}, err
	}
	if in.Image == "" {
		in.Image = c.placeholder(in.Genres)
		c.notifier.Notify(notices.LevelInfo, "Poster generated automatically")
	}

	movie, err := c.backend.CreateMovie(ctx, in)
	if err != nil {
		log.Error("Error creating movie", "errMsg", err.Error())
		c.recordFailure(err, "Could not create movie")
		return Result{Err: fmt.Errorf("%s: %w", op, err)}, nil
	}
	movie.Normalize()

	c.mu.Lock()
	c.movies = slices.Insert(c.movies, 0, *movie)
	c.err = nil
	state := c.next()
	c.mu.Unlock()

	log.Info("movie created", "id", movie.ID)
	c.notifier.Notify(notices.LevelSuccess, "Movie created")
	c.listeners.Notify(state)
	return Result{Movie: movie}, nil
}

// Update follows the failure contract of Create.
func (c *Catalog) Update(ctx context.Context, id string, in models.MovieInput) (Result, error) {
	const op = "movies.Catalog.Update"
	log := c.log.With("op", op, "id", id)
	if err := validator.Check(c.validator, in); err != nil {
		return Result{}, err
	}

	movie, err := c.backend.UpdateMovie(ctx, id, in)
	if err != nil {
		log.Error("Error updating movie", "errMsg", err.Error())
		c.recordFailure(err, "Could not update movie")
		return Result{Err: fmt.Errorf("%s: %w", op, err)}, nil
	}
	movie.Normalize()

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.movies[i] = *movie
	}
	c.err = nil
	state := c.next()
	c.mu.Unlock()

	log.Info("movie updated")
	c.notifier.Notify(notices.LevelSuccess, "Movie updated")
	c.listeners.Notify(state)
	return Result{Movie: movie}, nil
}

// Delete removes a movie. On failure the movie is kept and the error is
// returned.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	const op = "movies.Catalog.Delete"
	log := c.log.With("op", op, "id", id)
	if err := c.backend.DeleteMovie(ctx, id); err != nil {
		log.Error("Error deleting movie", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.movies = slices.Delete(c.movies, i, i+1)
	}
	state := c.next()
	c.mu.Unlock()

	log.Info("movie deleted")
	c.notifier.Notify(notices.LevelSuccess, "Movie deleted")
	c.listeners.Notify(state)
	return nil
}

// HandleProfileChange follows the profile directory. Any change of the
// active profile clears the list, a new active profile is then loaded with
// the default filters. Changes are ignored while profiles are loading, and
// so is a directory state whose seq is not newer than the last applied one.
func (c *Catalog) HandleProfileChange(ctx context.Context, seq uint64, active *models.Profile, loading bool) error {
	c.mu.Lock()
	if seq <= c.profileSeq {
		c.mu.Unlock()
		c.log.Debug("dropping stale profile state", "seq", seq)
		return nil
	}
	c.profileSeq = seq
	c.profilesLoading = loading
	if loading || sameProfile(c.profile, active) {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	if active != nil {
		p := *active
		c.profile = &p
	} else {
		c.profile = nil
	}
	c.movies = nil
	c.totalPages = 1
	c.err = nil
	c.loading = false
	c.filters = filters.Default()
	state := c.next()
	c.mu.Unlock()

	c.listeners.Notify(state)
	if active == nil {
		return nil
	}
	return c.Fetch(ctx, filters.Default())
}

func (c *Catalog) Dispose() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
	c.listeners.Clear()
}

func (c *Catalog) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// Ready reports that a profile is active and no fetch is in flight.
func (c *Catalog) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile != nil && !c.loading && !c.profilesLoading
}

func (c *Catalog) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Catalog) Subscribe(fn func(State)) (unsubscribe func()) {
	return c.listeners.Add(fn)
}

func (c *Catalog) recordFailure(err error, msg string) {
	c.mu.Lock()
	c.err = err
	state := c.next()
	c.mu.Unlock()
	c.notifier.Notify(notices.LevelError, msg)
	c.listeners.Notify(state)
}

func (c *Catalog) placeholder(genres []string) string {
	seed := "general"
	if len(genres) > 0 && genres[0] != "" {
		seed = url.QueryEscape(genres[0])
	}
	return fmt.Sprintf(placeholderPoster, seed, c.now().UnixMilli())
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.movies, func(m models.Movie) bool { return m.HasID(id) })
}

func (c *Catalog) snapshot() State {
	return State{
		Loading:    c.loading,
		Movies:     c.visible(),
		TotalPages: c.totalPages,
		Filters:    c.filters,
		Err:        c.err,
		Seq:        c.seq,
	}
}

// next stamps a snapshot for delivery to subscribers. Callers hold c.mu.
func (c *Catalog) next() State {
	c.seq++
	return c.snapshot()
}

func sameProfile(a, b *models.Profile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
