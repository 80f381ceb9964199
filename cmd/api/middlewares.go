package main

import (
	"context"
	"fmt"
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/services/gating"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil && rec != http.ErrAbortHandler {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				w.Header().Set("Connection", "close")
				app.Http.ServerError(w, r, err, "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

const limiterClientTTL = 5 * time.Minute

// clientLimiter keeps one token bucket per client ip. Buckets idle for
// longer than ttl are swept on the next call once ttl has passed since the
// previous sweep.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*limitedClient
	lastSweep time.Time
	rps       rate.Limit
	burst     int
	ttl       time.Duration
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int, ttl time.Duration) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*limitedClient),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
}

func (l *clientLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	}
	if now.Sub(l.lastSweep) > l.ttl {
		for ip, c := range l.clients {
			if now.Sub(c.lastSeen) > l.ttl {
				delete(l.clients, ip)
			}
		}
		l.lastSweep = now
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	limiter := newClientLimiter(app.cfg.Limiter.Rps, app.cfg.Limiter.Burst, limiterClientTTL)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.cfg.Limiter.Enabled {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				app.Http.ServerError(w, r, err, "")
				return
			}
			if !limiter.allow(ip, time.Now()) {
				log.Warn("rate limit exceeded", "ip", ip)
				app.Http.Response(
					w, r,
					envelop{"error": "rate limit exceeded"},
					"Can't process request see an error below.",
					http.StatusTooManyRequests,
				)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type CtxKey string

const CtxKeyUser CtxKey = "user"

// Authenticate puts the session user (or models.AnonymousUser) in the
// request context. The agent holds one session, so no header is read.
func (app *Application) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := app.services.Auth.User()
		if user == nil {
			user = models.AnonymousUser
		}
		r = r.WithContext(context.WithValue(r.Context(), CtxKeyUser, user))
		next.ServeHTTP(w, r)
	})
}

func userFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(CtxKeyUser).(*models.User)
	if !ok {
		return models.AnonymousUser
	}
	return user
}

func (app *Application) requireAuthenticatedUser(next http.Handler) http.Handler {
	return app.requireRole("")(next)
}

// requireRole answers the route guard: 503 while the session is restored,
// 401 for anonymous users, 403 when role is set and the user's differs.
func (app *Application) requireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := userFromContext(r)
			if user.IsAnonymous() {
				user = nil
			}
			result := gating.Guard(app.services.Auth.Loading(), user, role)
			switch result.Kind {
			case gating.Verifying:
				app.Http.ServiceUnavailable(w, r, "Verifying session...")
			case gating.RedirectLogin:
				app.Http.Response(w, r, envelop{"redirect": result.Redirect},
					"You must be authenticated to access this resource", http.StatusUnauthorized)
			case gating.RedirectUnauthorized:
				app.Http.Forbidden(w, r, envelop{"redirect": result.Redirect},
					"Your account doesn't have the necessary permissions to access this resource")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
