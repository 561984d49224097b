package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error into one of the failure categories the API
// surfaces. Handlers map a Kind to an HTTP status; everything else in a
// wrapped error stays server-side.
type Kind int

const (
	KindValidation Kind = iota // missing or malformed input
	KindAuth                   // missing, malformed, expired or invalid credential
	KindForbidden              // valid credential, wrong role
	KindNotFound               // unknown entity id
	KindStorage                // durable read/write failure
)

// Error carries a client-safe message plus the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// MissingFields builds a validation error naming the offending fields.
func MissingFields(fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: "missing required fields: " + strings.Join(fields, ", ")}
}

// Auth returns a credential failure. Callers must pass the same message for
// every cause on a given endpoint so failures are indistinguishable and
// account enumeration is not possible.
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "access denied: insufficient permissions"}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Storage wraps a persistence failure. The cause is kept for logs; clients
// only ever see the generic message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "server error", Err: fmt.Errorf("storage: %w", err)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusCode maps an error to the HTTP status a handler should return.
// Unclassified errors are treated as server errors.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to put in a response body.
func ClientMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindStorage {
		return "server error"
	}
	return e.Message
}
