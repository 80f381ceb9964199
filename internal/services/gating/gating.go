// Package gating decides what a route shows given the session and profile
// state. Everything here is pure.
package gating

import (
	"moviehub/proj/internal/domain/models"
	"strings"
)

type Kind string

const (
	ShowLoadingAuth      Kind = "show_loading_auth"
	ShowLoadingProfiles  Kind = "show_loading_profiles"
	BlockNoProfiles      Kind = "block_no_profiles"
	BlockNoActiveProfile Kind = "block_no_active_profile"
	PassThrough          Kind = "pass_through"
)

const ProfilePath = "/profile"

var (
	// reachable without any profile
	openWithoutProfiles = []string{"/", "/profile", "/movies", "/login", "/register", "/unauthorized"}
	// reachable while no profile is active
	openWithoutActive = []string{"/", "/profile"}
)

type Input struct {
	AuthLoading     bool
	Authenticated   bool
	ProfilesLoading bool
	Profiles        []models.Profile
	Active          *models.Profile
	Path            string
}

type Decision struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (d Decision) Blocked() bool {
	return d.Kind == BlockNoProfiles || d.Kind == BlockNoActiveProfile
}

func Decide(in Input) Decision {
	path := NormalizePath(in.Path)
	switch {
	case in.AuthLoading:
		return Decision{Kind: ShowLoadingAuth, Message: "Verifying session..."}
	case !in.Authenticated:
		return Decision{Kind: PassThrough}
	case in.ProfilesLoading:
		return Decision{Kind: ShowLoadingProfiles, Message: "Loading profiles..."}
	case len(in.Profiles) == 0:
		if contains(openWithoutProfiles, path) {
			return Decision{Kind: PassThrough}
		}
		return Decision{
			Kind:     BlockNoProfiles,
			Message:  "Create a profile to continue.",
			Redirect: ProfilePath,
		}
	case in.Active == nil:
		if contains(openWithoutActive, path) {
			return Decision{Kind: PassThrough}
		}
		return Decision{
			Kind:     BlockNoActiveProfile,
			Message:  "Select a profile to continue.",
			Redirect: ProfilePath,
		}
	}
	return Decision{Kind: PassThrough}
}

// NormalizePath drops the query string, fragment and trailing slash.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func contains(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
