package main

import (
	"moviehub/proj/internal/domain/models"
	"moviehub/proj/internal/services/gating"
	"moviehub/proj/internal/services/theme"
	"net/http"

	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
		Backend string `json:"backend"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
		Backend: app.cfg.API.BaseURL,
	})
}

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *Application) getSession(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"session": app.services.Auth.State()}, "")
}

func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := app.services.Auth.Login(r.Context(), input.Email, input.Password); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"session": app.services.Auth.State()}, "Signed in")
}

func (app *Application) register(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := app.services.Auth.Register(r.Context(), input.Email, input.Password); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"session": app.services.Auth.State()}, "Account created")
}

func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	app.services.Auth.Logout(r.Context())
	app.Http.Ok(w, r, envelop{"session": app.services.Auth.State()}, "Signed out")
}

func (app *Application) gate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	app.Http.Ok(w, r, envelop{"decision": app.services.Gate(path)}, "")
}

func (app *Application) guard(w http.ResponseWriter, r *http.Request) {
	var role models.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		role = models.ParseRole(raw)
	}
	result := gating.Guard(app.services.Auth.Loading(), app.services.Auth.User(), role)
	app.Http.Ok(w, r, envelop{"guard": result}, "")
}

func (app *Application) listNotices(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"notices": app.services.Notices.Drain()}, "")
}

func (app *Application) getTheme(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"theme": app.services.Theme.Get()}, "")
}

func (app *Application) setTheme(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Theme theme.Theme `json:"theme"`
	}
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := app.services.Theme.Set(r.Context(), input.Theme); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"theme": input.Theme}, "")
}

func (app *Application) toggleTheme(w http.ResponseWriter, r *http.Request) {
	next, err := app.services.Theme.Toggle(r.Context())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"theme": next}, "")
}
