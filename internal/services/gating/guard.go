package gating

import "moviehub/proj/internal/domain/models"

type GuardKind string

const (
	Verifying            GuardKind = "verifying"
	RedirectLogin        GuardKind = "redirect_login"
	RedirectUnauthorized GuardKind = "redirect_unauthorized"
	Allow                GuardKind = "allow"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

type GuardResult struct {
	Kind     GuardKind `json:"kind"`
	Redirect string    `json:"redirect,omitempty"`
}

// Guard protects a route that needs a signed in user and, when requiredRole
// is set, exactly that role.
func Guard(authLoading bool, user *models.User, requiredRole models.Role) GuardResult {
	switch {
	case authLoading:
		return GuardResult{Kind: Verifying}
	case user == nil:
		return GuardResult{Kind: RedirectLogin, Redirect: LoginPath}
	case requiredRole != "" && user.Role != requiredRole:
		return GuardResult{Kind: RedirectUnauthorized, Redirect: UnauthorizedPath}
	}
	return GuardResult{Kind: Allow}
}
