// Package backend holds the error taxonomy shared by the catalog REST client
// and the stores that call it.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConnectivity     = errors.New("no response from server")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSessionExpired   = fmt.Errorf("session expired: %w", ErrUnauthorized)
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrBadRequest       = errors.New("bad request")
	ErrServer           = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// ResponseError is returned for every failed backend call. Kind is one of
// the sentinels above, Status is 0 when no response was received.
type ResponseError struct {
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *ResponseError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
}

func (e *ResponseError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Classify maps an HTTP status to an error kind, nil for success.
func Classify(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case status >= 500:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}

// Message returns the backend supplied message of err, if any.
func Message(err error) string {
	var rerr *ResponseError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return ""
}
