package exchange

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse matches every ShapeError via errors.Is.
var ErrUnexpectedResponse = errors.New("unexpected API response")

// genericRemoteMessage is reported when a failed response carries no
// explanation of its own.
const genericRemoteMessage = "API error"

// TransportError reports a call that did not complete: the request could not
// be sent, or the response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports a non-success response. Message is the engine's own
// explanation when the body carried one, otherwise a generic description.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// ShapeError reports a success response whose body does not hold the
// expected array.
type ShapeError struct {
	Op    string
	Field string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s (missing %q array)", e.Op, ErrUnexpectedResponse, e.Field)
}

func (e *ShapeError) Is(target error) bool { return target == ErrUnexpectedResponse }
