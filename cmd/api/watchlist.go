package main

import (
	"moviehub/proj/internal/domain/models"
	"net/http"
)

func (app *Application) getWatchlist(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"watchlist": app.services.Watchlist.Entries()}, "")
}

// addToWatchlist accepts either a movie id from the held catalog page or a
// full entry, the watchlist does not depend on the backend.
func (app *Application) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MovieID string                 `json:"movieId"`
		Entry   *models.WatchlistEntry `json:"entry"`
	}
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	var entry models.WatchlistEntry
	switch {
	case input.Entry != nil:
		entry = *input.Entry
	case input.MovieID != "":
		movie, err := app.services.Movies.Get(input.MovieID)
		if err != nil {
			app.handleServiceError(w, r, err)
			return
		}
		entry = models.WatchlistEntryFromMovie(*movie)
	default:
		app.Http.UnprocessableEntity(w, r, map[string]string{"movieId": "This field is required"})
		return
	}
	if err := app.services.Watchlist.Add(r.Context(), entry); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"watchlist": app.services.Watchlist.Entries()}, "")
}

func (app *Application) removeFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.services.Watchlist.Remove(r.Context(), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"watchlist": app.services.Watchlist.Entries()}, "")
}

func (app *Application) clearWatchlist(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Watchlist.Clear(r.Context()); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"watchlist": app.services.Watchlist.Entries()}, "")
}
