package nexmo

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport is returned when no HTTP response was received.
	ErrTransport = errors.New("nexmo: transport failure")

	// ErrNoData is returned when the API answered successfully but the
	// payload lacks the expected field, or the body is not a JSON object.
	ErrNoData = errors.New("nexmo: no data")

	// ErrUnknownCommand is returned by the dispatcher for a command that has
	// no descriptor.
	ErrUnknownCommand = errors.New("nexmo: unknown command")
)

// APIError reports an HTTP status the operation does not accept.
type APIError struct {
	Command    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nexmo: %s: status %d", e.Command, e.StatusCode)
	}
	return fmt.Sprintf("nexmo: %s: status %d: %s", e.Command, e.StatusCode, e.Body)
}

// StatusCode returns the upstream HTTP status carried by err, or 0 when err
// is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// maxErrorBody bounds the response excerpt kept in an APIError.
const maxErrorBody = 512

func newAPIError(cmd command, resp *response) *APIError {
	body := resp.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{Command: string(cmd), StatusCode: resp.status, Body: string(body)}
}

// transportError wraps a failed round trip. The message is redacted because
// *url.Error embeds the request URL, which carries the API secret.
type transportError struct {
	cmd command
	msg string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrTransport, e.cmd, e.msg)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrTransport, e.err}
}
