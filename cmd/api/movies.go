package main

import (
	"moviehub/proj/internal/domain/filters"
	"moviehub/proj/internal/domain/models"
	"net/http"
)

func (app *Application) getMovies(w http.ResponseWriter, r *http.Request) {
	f, err := filters.Parse(r.URL.Query())
	if err != nil {
		app.Http.BadRequest(w, r, "invalid query parameters")
		return
	}
	if err := app.services.Movies.Fetch(r.Context(), f); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	state := app.services.Movies.State()
	app.Http.Ok(w, r, envelop{
		"movies":     state.Movies,
		"totalPages": state.TotalPages,
		"filters":    state.Filters,
		"profile":    app.services.Movies.Profile(),
	}, "")
}

func (app *Application) getMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	movie, err := app.services.Movies.Get(id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie, "inWatchlist": app.services.Watchlist.Has(id)}, "")
}

func (app *Application) createMovie(w http.ResponseWriter, r *http.Request) {
	var input models.MovieInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	res, err := app.services.Movies.Create(r.Context(), input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if res.Err != nil {
		app.handleServiceError(w, r, res.Err)
		return
	}
	app.Http.Created(w, r, envelop{"movie": res.Movie}, "")
}

func (app *Application) updateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var input models.MovieInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	res, err := app.services.Movies.Update(r.Context(), id, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if res.Err != nil {
		app.handleServiceError(w, r, res.Err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": res.Movie}, "")
}

func (app *Application) deleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.services.Movies.Delete(r.Context(), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Movie deleted")
}
