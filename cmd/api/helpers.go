package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"moviehub/proj/internal/clients/backend"
	"moviehub/proj/internal/lib/validator"
	"moviehub/proj/internal/services/auth"
	"moviehub/proj/internal/services/gating"
	"moviehub/proj/internal/services/movies"
	"moviehub/proj/internal/services/profiles"
	"moviehub/proj/internal/services/theme"
	"moviehub/proj/internal/services/watchlist"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request) (id string, extracted bool) {
	id = strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		app.Http.BadRequest(w, r, "id must not be empty")
		return "", false
	}
	return id, true
}

// handleServiceError maps store and backend failures onto agent responses.
func (app *Application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		app.Http.UnprocessableEntity(w, r, verr.Fields)
	case errors.Is(err, backend.ErrConnectivity):
		app.Http.BadGateway(w, r, "Could not connect to the server.")
	case errors.Is(err, backend.ErrServer),
		errors.Is(err, backend.ErrUnexpectedStatus),
		errors.Is(err, auth.ErrInvalidToken):
		app.Http.BadGateway(w, r, "The catalog backend failed to process the request.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		app.Http.Unauthorized(w, r, "Invalid credentials")
	case errors.Is(err, backend.ErrUnauthorized):
		app.Http.Response(w, r, envelop{"redirect": gating.LoginPath},
			"Your session expired, please sign in again", http.StatusUnauthorized)
	case errors.Is(err, backend.ErrForbidden):
		app.Http.Forbidden(w, r, nil, "You are not allowed to perform this action.")
	case errors.Is(err, profiles.ErrProfileNotFound),
		errors.Is(err, movies.ErrMovieNotFound),
		errors.Is(err, backend.ErrNotFound):
		app.Http.NotFound(w, r, "The requested resource could not be found")
	case errors.Is(err, backend.ErrBadRequest), errors.Is(err, auth.ErrRegistrationFailed):
		msg := backend.Message(err)
		if msg == "" {
			msg = "Request rejected by the catalog backend"
		}
		app.Http.BadRequest(w, r, msg)
	case errors.Is(err, watchlist.ErrInvalidEntry), errors.Is(err, theme.ErrInvalidTheme):
		app.Http.BadRequest(w, r, err.Error())
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Errorf("body contains unknown key %s", fieldName)

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}
