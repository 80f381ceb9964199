package main

import (
	"moviehub/proj/internal/domain/models"
	"net/http"
)

func (app *Application) getProfiles(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"profiles": app.services.Profiles.State()}, "")
}

func (app *Application) refreshProfiles(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Profiles.Fetch(r.Context()); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"profiles": app.services.Profiles.State()}, "")
}

func (app *Application) reconcileProfiles(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Profiles.Reconcile(r.Context()); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"profiles": app.services.Profiles.State()}, "")
}

func (app *Application) createProfile(w http.ResponseWriter, r *http.Request) {
	var input models.ProfileInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	profile, err := app.services.Profiles.Create(r.Context(), input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.services.ReconcileProfilesLater()
	app.Http.Created(w, r, envelop{"profile": profile}, "")
}

func (app *Application) selectProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID string `json:"id"`
	}
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := app.services.Profiles.Select(r.Context(), input.ID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"profile": app.services.Profiles.Active()}, "")
}

func (app *Application) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var input models.ProfileInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	profile, err := app.services.Profiles.Update(r.Context(), id, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"profile": profile}, "")
}

func (app *Application) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.services.Profiles.Delete(r.Context(), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Profile deleted")
}
