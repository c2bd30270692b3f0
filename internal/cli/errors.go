package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/allyourbase/nexmoctl/internal/cli/ui"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
)

// hintError attaches "Try:" suggestions to an error for the error report.
type hintError struct {
	err   error
	hints []string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

func withHints(err error, hints ...string) error {
	return &hintError{err: err, hints: hints}
}

// Hints returns the suggestions attached to err, if any.
func Hints(err error) []string {
	var h *hintError
	if errors.As(err, &h) {
		return h.hints
	}
	return nil
}

// explain adds suggestions for the API failures users hit most often.
func explain(err error) error {
	if err == nil || Hints(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, nexmo.ErrTransport):
		return withHints(err, "check network access to the API", "nexmoctl config get api.base_url")
	case nexmo.StatusCode(err) == http.StatusUnauthorized:
		return withHints(err, "check api.key and api.secret", "nexmoctl config get api.key")
	case errors.Is(err, nexmo.ErrNoData):
		return withHints(err, "run again with --log-level debug to log the response body")
	}
	return err
}

// Report renders err for stderr with its upstream status and suggestions.
func Report(err error) string {
	return ui.Problem{
		Message: err.Error(),
		Status:  nexmo.StatusCode(err),
		Hints:   Hints(err),
	}.String()
}

// failureReason is the short verdict the request spinner shows for err.
func failureReason(err error) string {
	switch {
	case nexmo.StatusCode(err) != 0:
		return fmt.Sprintf("HTTP %d", nexmo.StatusCode(err))
	case errors.Is(err, nexmo.ErrTransport):
		return "unreachable"
	case errors.Is(err, nexmo.ErrNoData):
		return "no data"
	}
	return "failed"
}
