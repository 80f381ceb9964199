package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/lib/listeners"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/notices"
	"moviehub/proj/internal/storage"
	"slices"
	"strings"
	"sync"

	govalidator "github.com/go-playground/validator/v10"
)

type Backend interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	CreateProfile(ctx context.Context, in models.ProfileInput) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	SetProfileID(id string)
}

type State struct {
	Loading  bool             `json:"loading"`
	Profiles []models.Profile `json:"profiles"`
	Active   *models.Profile  `json:"active"`
	// Seq grows with every delivered state. Followers drop a state older
	// than the last one they applied.
	Seq uint64 `json:"seq"`
}

// Directory holds the signed in user's viewing profiles and the active one.
//
// Fetches are tagged with a generation; a response whose generation is no
// longer current (auth changed, a newer fetch started, disposed) is dropped.
// Mutations are tagged with the auth epoch the same way.
type Directory struct {
	log       *slog.Logger
	backend   Backend
	kv        storage.KV
	notifier  notices.Notifier
	validator *govalidator.Validate

	mu         sync.Mutex
	userID     string
	loading    bool
	profiles   []models.Profile
	activeID   string
	optimistic bool
	fetchGen   uint64
	epoch      uint64
	seq        uint64
	authSeq    uint64
	listeners  listeners.Set[State]
}

func New(
	log *slog.Logger,
	backend Backend,
	kv storage.KV,
	notifier notices.Notifier,
	validator *govalidator.Validate,
) *Directory {
	return &Directory{
		log:       log,
		backend:   backend,
		kv:        kv,
		notifier:  notifier,
		validator: validator,
	}
}

func (d *Directory) Fetch(ctx context.Context) error {
	const op = "profiles.Directory.Fetch"
	log := d.log.With("op", op)

	d.mu.Lock()
	if d.userID == "" {
		d.mu.Unlock()
		return nil
	}
	d.fetchGen++
	gen := d.fetchGen
	d.loading = true
	state := d.next()
	d.mu.Unlock()
	d.listeners.Notify(state)

	list, err := d.backend.ListProfiles(ctx)
	persistedID, perr := storage.GetString(ctx, d.kv, storage.KeyActiveProfileID)
	if perr != nil {
		log.Warn("Error reading active profile", "errMsg", perr.Error())
	}

	d.mu.Lock()
	if gen != d.fetchGen {
		d.mu.Unlock()
		log.Debug("dropping stale profiles response")
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	d.loading = false
	if err != nil {
		d.profiles = nil
		d.activeID = ""
		d.backend.SetProfileID("")
		state = d.next()
		d.mu.Unlock()
		log.Error("Error fetching profiles", "errMsg", err.Error())
		d.notifier.Notify(notices.LevelError, "Could not load profiles")
		d.listeners.Notify(state)
		return fmt.Errorf("%s: %w", op, err)
	}

	for i := range list {
		list[i].Normalize()
	}
	d.profiles = list
	d.optimistic = false
	d.activeID = ""
	switch {
	case persistedID != "" && d.indexOf(persistedID) >= 0:
		d.activeID = persistedID
	case len(list) > 0:
		d.activeID = string(list[0].ID)
	}
	d.persistActive(ctx, log)
	state = d.next()
	d.mu.Unlock()

	log.Info("profiles loaded", "count", len(list), "active", state.activeID())
	d.listeners.Notify(state)
	return nil
}

// Select makes id the active profile.
func (d *Directory) Select(ctx context.Context, id string) error {
	const op = "profiles.Directory.Select"
	log := d.log.With("op", op, "id", id)

	d.mu.Lock()
	i := d.indexOf(id)
	if i < 0 {
		d.mu.Unlock()
		log.Info("profile not found")
		d.notifier.Notify(notices.LevelError, "The selected profile does not exist.")
		return ErrProfileNotFound
	}
	name := d.profiles[i].Name
	d.activeID = string(d.profiles[i].ID)
	d.persistActive(ctx, log)
	state := d.next()
	d.mu.Unlock()

	d.notifier.Notify(notices.LevelSuccess, "Profile switched: "+name)
	d.listeners.Notify(state)
	return nil
}

// Create adds a profile and activates it. The list is marked optimistic
// until the next fetch.
func (d *Directory) Create(ctx context.Context, in models.ProfileInput) (*models.Profile, error) {
	const op = "profiles.Directory.Create"
	in.Name = strings.TrimSpace(in.Name)
	log := d.log.With("op", op, "name", in.Name)
	if err := validator.Check(d.validator, in); err != nil {
		return nil, err
	}

	epoch := d.currentEpoch()
	profile, err := d.backend.CreateProfile(ctx, in)
	if err != nil {
		log.Error("Error creating profile", "errMsg", err.Error())
		d.notifier.Notify(notices.LevelError, "Could not create profile")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile.Normalize()

	d.mu.Lock()
	if epoch != d.epoch {
		d.mu.Unlock()
		log.Debug("dropping stale create response")
		return profile, nil
	}
	d.profiles = append(d.profiles, *profile)
	d.activeID = string(profile.ID)
	d.optimistic = true
	d.persistActive(ctx, log)
	state := d.next()
	d.mu.Unlock()

	log.Info("profile created", "id", profile.ID)
	d.notifier.Notify(notices.LevelSuccess, "Profile created: "+profile.Name)
	d.listeners.Notify(state)
	return profile, nil
}

func (d *Directory) Update(ctx context.Context, id string, in models.ProfileInput) (*models.Profile, error) {
	const op = "profiles.Directory.Update"
	in.Name = strings.TrimSpace(in.Name)
	log := d.log.With("op", op, "id", id)
	if err := validator.Check(d.validator, in); err != nil {
		return nil, err
	}
	profile, err := d.backend.UpdateProfile(ctx, id, in)
	if err != nil {
		log.Error("Error updating profile", "errMsg", err.Error())
		d.notifier.Notify(notices.LevelError, "Could not update profile")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile.Normalize()
	d.notifier.Notify(notices.LevelSuccess, "Profile updated")
	if err := d.Fetch(ctx); err != nil {
		return profile, err
	}
	return profile, nil
}

func (d *Directory) Delete(ctx context.Context, id string) error {
	const op = "profiles.Directory.Delete"
	log := d.log.With("op", op, "id", id)
	if err := d.backend.DeleteProfile(ctx, id); err != nil {
		log.Error("Error deleting profile", "errMsg", err.Error())
		d.notifier.Notify(notices.LevelError, "Could not delete profile")
		return fmt.Errorf("%s: %w", op, err)
	}

	d.mu.Lock()
	if d.activeID == id || d.isActiveRaw(id) {
		d.activeID = ""
		if err := d.kv.Delete(ctx, storage.KeyActiveProfileID); err != nil {
			log.Error("Error removing active profile", "errMsg", err.Error())
		}
	}
	d.mu.Unlock()

	d.notifier.Notify(notices.LevelSuccess, "Profile deleted")
	return d.Fetch(ctx)
}

// Reconcile refetches the list when it holds optimistic data.
func (d *Directory) Reconcile(ctx context.Context) error {
	d.mu.Lock()
	optimistic := d.optimistic
	d.mu.Unlock()
	if !optimistic {
		return nil
	}
	return d.Fetch(ctx)
}

// HandleAuthChange follows the session. userID is "" once signed out, which
// clears the directory and the persisted choice. seq is the session state's
// sequence number; a change older than the last applied one is ignored.
func (d *Directory) HandleAuthChange(ctx context.Context, seq uint64, userID string) error {
	const op = "profiles.Directory.HandleAuthChange"
	log := d.log.With("op", op, "user_id", userID, "seq", seq)

	d.mu.Lock()
	if seq <= d.authSeq {
		d.mu.Unlock()
		log.Debug("dropping stale session state")
		return nil
	}
	d.authSeq = seq
	if userID != "" && userID == d.userID {
		d.mu.Unlock()
		return nil
	}
	changed := d.userID != userID || d.activeID != "" || len(d.profiles) > 0
	d.userID = userID
	d.epoch++
	d.fetchGen++
	d.profiles = nil
	d.activeID = ""
	d.optimistic = false
	d.loading = false
	d.backend.SetProfileID("")
	if userID == "" {
		if err := d.kv.Delete(ctx, storage.KeyActiveProfileID); err != nil {
			log.Error("Error removing active profile", "errMsg", err.Error())
		}
	}
	state := d.next()
	d.mu.Unlock()

	if userID == "" {
		if changed {
			d.listeners.Notify(state)
		}
		return nil
	}
	return d.Fetch(ctx)
}

// Dispose drops in-flight responses and all listeners.
func (d *Directory) Dispose() {
	d.mu.Lock()
	d.epoch++
	d.fetchGen++
	d.mu.Unlock()
	d.listeners.Clear()
}

func (d *Directory) Get(id string) (*models.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return nil, ErrProfileNotFound
	}
	p := d.profiles[i]
	return &p, nil
}

func (d *Directory) Active() *models.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active()
}

func (d *Directory) Optimistic() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.optimistic
}

func (d *Directory) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// Subscribe registers fn for every change of the directory.
func (d *Directory) Subscribe(fn func(State)) (unsubscribe func()) {
	return d.listeners.Add(fn)
}

func (s State) activeID() string {
	if s.Active == nil {
		return ""
	}
	return string(s.Active.ID)
}

func (d *Directory) currentEpoch() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.epoch
}

// persistActive writes the active choice and pushes it to the backend
// client. Callers hold d.mu.
func (d *Directory) persistActive(ctx context.Context, log *slog.Logger) {
	var err error
	if d.activeID == "" {
		err = d.kv.Delete(ctx, storage.KeyActiveProfileID)
	} else {
		err = storage.SetJSON(ctx, d.kv, storage.KeyActiveProfileID, d.activeID)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error("Error persisting active profile", "errMsg", err.Error())
	}
	d.backend.SetProfileID(d.activeID)
}

func (d *Directory) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(d.profiles, func(p models.Profile) bool {
		return string(p.ID) == id || string(p.RawID) == id
	})
}

func (d *Directory) isActiveRaw(id string) bool {
	active := d.active()
	return active != nil && string(active.RawID) == id
}

func (d *Directory) active() *models.Profile {
	i := d.indexOf(d.activeID)
	if i < 0 {
		return nil
	}
	p := d.profiles[i]
	return &p
}

func (d *Directory) snapshot() State {
	return State{
		Loading:  d.loading,
		Profiles: slices.Clone(d.profiles),
		Active:   d.active(),
		Seq:      d.seq,
	}
}

// next stamps a snapshot for delivery to subscribers. Callers hold d.mu.
func (d *Directory) next() State {
	d.seq++
	return d.snapshot()
}
