package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure by how the crawl must react to it
type Kind string

const (
	// KindAuthFailure means one credential pair is unusable
	KindAuthFailure Kind = "auth_failure"
	// KindCredentialsExhausted means the pool has no session left
	KindCredentialsExhausted Kind = "credentials_exhausted"
	// KindBlocked is provider throttling (HTTP 429)
	KindBlocked Kind = "blocked"
	// KindRejected is a bad-request class response (HTTP 400)
	KindRejected Kind = "rejected"
	// KindRotated means the rate controller abandoned its session
	KindRotated Kind = "rotated"
	// KindTransient is any other per-request failure
	KindTransient Kind = "transient"
)

// Error carries a Kind alongside the failed operation
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		if e.Code != 0 {
			return fmt.Sprintf("%s: %s error (code %d): %s", e.Op, e.Kind, e.Code, msg)
		}
		return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Code == 0
}

// ErrCredentialsExhausted is returned once the pool has handed out every session
var ErrCredentialsExhausted = &Error{Kind: KindCredentialsExhausted}

// ErrRotated is returned by the rate controller after it advanced the pool
var ErrRotated = &Error{Kind: KindRotated}

// New builds an Error of the given kind
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to an underlying error
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of err. Errors without a Kind are transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

func IsBlocked(err error) bool   { return KindOf(err) == KindBlocked }
func IsRejected(err error) bool  { return KindOf(err) == KindRejected }
func IsRotated(err error) bool   { return KindOf(err) == KindRotated }
func IsExhausted(err error) bool { return KindOf(err) == KindCredentialsExhausted }

// FromStatus maps an HTTP status code onto a Kind
func FromStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return KindBlocked
	case statusCode == http.StatusBadRequest:
		return KindRejected
	default:
		return KindTransient
	}
}

// IsRetryableStatusCode reports whether a login request should be retried
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
		return false
	default:
		return statusCode >= 500
	}
}
