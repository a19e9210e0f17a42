package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises identity failures. Every kind is recoverable by retrying.
type Kind string

const (
	KindInvalidCredential  Kind = "invalid_credential"
	KindUserNotFound       Kind = "user_not_found"
	KindWrongPassword      Kind = "wrong_password"
	KindDuplicateAccount   Kind = "duplicate_account"
	KindWeakPassword       Kind = "weak_password"
	KindInvalidEmail       Kind = "invalid_email"
	KindTooManyRequests    Kind = "too_many_requests"
	KindNetwork            Kind = "network_failure"
	KindPopupBlocked       Kind = "popup_blocked"
	KindPopupClosed        Kind = "popup_closed"
	KindCancelled          Kind = "cancelled"
	KindUnauthorizedDomain Kind = "unauthorized_domain"
	KindConfiguration      Kind = "configuration"
	KindInternal           Kind = "internal"
	KindPasswordTooShort   Kind = "password_too_short"
	KindPasswordMismatch   Kind = "password_mismatch"
)

var messages = map[Kind]string{
	KindInvalidCredential:  "Invalid email or password",
	KindUserNotFound:       "No account found with this email",
	KindWrongPassword:      "Incorrect password",
	KindDuplicateAccount:   "Email is already registered",
	KindWeakPassword:       "Password is too weak",
	KindInvalidEmail:       "Invalid email address",
	KindTooManyRequests:    "Too many failed attempts. Please try again later",
	KindNetwork:            "Network error. Please check your connection",
	KindPopupBlocked:       "Popup was blocked. Please allow popups and try again.",
	KindPopupClosed:        "Sign-in popup was closed. Please try again.",
	KindCancelled:          "Sign-in was cancelled",
	KindUnauthorizedDomain: "This domain is not authorized for Google sign-in",
	KindConfiguration:      "Google sign-in is not properly configured",
	KindInternal:           "Internal error. Please try again",
	KindPasswordTooShort:   fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
	KindPasswordMismatch:   "Passwords do not match",
}

var statuses = map[Kind]int{
	KindInvalidCredential:  http.StatusUnauthorized,
	KindUserNotFound:       http.StatusUnauthorized,
	KindWrongPassword:      http.StatusUnauthorized,
	KindDuplicateAccount:   http.StatusConflict,
	KindTooManyRequests:    http.StatusTooManyRequests,
	KindNetwork:            http.StatusBadGateway,
	KindConfiguration:      http.StatusBadGateway,
	KindInternal:           http.StatusBadGateway,
	KindUnauthorizedDomain: http.StatusForbidden,
}

// Error is a categorised identity failure.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Kind, e.Err)
	}
	return "identity: " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the user-facing text for the failure.
func (e *Error) Message() string {
	return MessageFor(e.Kind)
}

// HTTPStatus is the response status for the failure.
func (e *Error) HTTPStatus() int {
	if s, ok := statuses[e.Kind]; ok {
		return s
	}
	return http.StatusBadRequest
}

func MessageFor(kind Kind) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return "Authentication failed"
}

// ParseKind accepts a kind reported by a client, e.g. after a failed popup.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := messages[k]
	return k, ok
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrNotSignedIn is returned when an operation needs a session and there is none.
var ErrNotSignedIn = errors.New("not signed in")
