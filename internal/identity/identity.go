// Package identity adapts a managed identity provider for storefront clients:
// password and federated sign-in, sign-out, session refresh and session
// change notifications.
package identity

import (
	"context"
	"regexp"
	"time"
)

//go:generate mockgen -source=identity.go -destination=mock_provider.go -package=identity

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"

	MinPasswordLength = 6
)

// Session is a signed-in principal together with the provider tokens that back it.
type Session struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	ProviderID   string    `json:"provider_id"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Tokens is the result of a token refresh.
type Tokens struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// FederatedAuth is the provider URL a client must visit to sign in and the
// provider session that ties the callback back to it.
type FederatedAuth struct {
	AuthURI   string
	SessionID string
}

// Provider is the managed identity service. Failures are returned as *Error.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	StartFederated(ctx context.Context) (*FederatedAuth, error)
	CompleteFederated(ctx context.Context, callbackURL, sessionID string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}

type FlowMode string

const (
	FlowPopup    FlowMode = "popup"
	FlowRedirect FlowMode = "redirect"
)

var mobileUserAgent = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// Environment describes the client attempting a federated sign-in.
type Environment struct {
	UserAgent      string
	PopupAvailable bool
}

// ChooseFlow picks a popup unless the client is a mobile browser or cannot
// open popups.
func ChooseFlow(env Environment) FlowMode {
	if mobileUserAgent.MatchString(env.UserAgent) || !env.PopupAvailable {
		return FlowRedirect
	}
	return FlowPopup
}

// FederatedStart tells the client how to begin a federated sign-in.
type FederatedStart struct {
	Mode    FlowMode `json:"mode"`
	AuthURI string   `json:"auth_uri"`
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventRefreshed EventType = "refreshed"
)

// Event is a session transition. Session is nil for EventSignedOut. Redirect
// marks the sign-in that completed a redirect flow.
type Event struct {
	Type     EventType `json:"type"`
	Session  *Session  `json:"-"`
	Redirect bool      `json:"redirect,omitempty"`
}
