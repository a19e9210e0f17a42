package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hamarabooks/internal/platform/firebase"
)

var (
	federatedScopes = []string{"email", "profile"}
	federatedParams = map[string]string{"prompt": "select_account"}
)

// FirebaseProvider implements Provider with Firebase Authentication.
type FirebaseProvider struct {
	client      *firebase.Client
	apiKey      string
	callbackURL string
	now         func() time.Time
}

type FirebaseConfig struct {
	APIKey     string
	AuthDomain string
	ProjectID  string
	// CallbackURL receives the identity provider's redirect. Defaults to the
	// auth domain's hosted handler.
	CallbackURL string
}

func NewFirebaseProvider(cfg FirebaseConfig, client *firebase.Client) *FirebaseProvider {
	callback := cfg.CallbackURL
	if callback == "" && cfg.AuthDomain != "" {
		callback = fmt.Sprintf("https://%s/__/auth/handler", cfg.AuthDomain)
	}
	return &FirebaseProvider{
		client:      client,
		apiKey:      cfg.APIKey,
		callbackURL: callback,
		now:         time.Now,
	}
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	res, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	return p.session(res, ProviderPassword), nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	res, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	return p.session(res, ProviderPassword), nil
}

func (p *FirebaseProvider) StartFederated(ctx context.Context) (*FederatedAuth, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	if p.callbackURL == "" {
		return nil, newError(KindConfiguration, errors.New("no federated callback URL"))
	}
	res, err := p.client.CreateAuthURI(ctx, firebase.CreateAuthURIRequest{
		ProviderID:      ProviderGoogle,
		ContinueURI:     p.callbackURL,
		OAuthScope:      strings.Join(federatedScopes, " "),
		CustomParameter: federatedParams,
	})
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	if res.AuthURI == "" {
		return nil, newError(KindConfiguration, errors.New("provider returned no auth URI"))
	}
	return &FederatedAuth{AuthURI: res.AuthURI, SessionID: res.SessionID}, nil
}

func (p *FirebaseProvider) CompleteFederated(ctx context.Context, callbackURL, sessionID string) (*Session, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	res, err := p.client.SignInWithIdp(ctx, callbackURL, sessionID)
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	providerID := res.ProviderID
	if providerID == "" {
		providerID = ProviderGoogle
	}
	s := p.session(res, providerID)
	if s.DisplayName == "" {
		s.DisplayName = res.FullName
	}
	return s, nil
}

func (p *FirebaseProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	res, err := p.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	return &Tokens{
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    p.expiry(res.ExpiresIn),
	}, nil
}

func (p *FirebaseProvider) configured() error {
	if p.apiKey == "" {
		return newError(KindConfiguration, errors.New("missing API key"))
	}
	return nil
}

func (p *FirebaseProvider) session(res *firebase.AuthResponse, providerID string) *Session {
	return &Session{
		UID:          res.LocalID,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		ProviderID:   providerID,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    p.expiry(res.ExpiresIn),
	}
}

// expiry converts the provider's expiresIn seconds. Firebase ID tokens last
// an hour, which is also the fallback.
func (p *FirebaseProvider) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return p.now().Add(time.Duration(secs) * time.Second)
}

var firebaseKinds = map[string]Kind{
	"EMAIL_EXISTS":                KindDuplicateAccount,
	"EMAIL_NOT_FOUND":             KindUserNotFound,
	"USER_NOT_FOUND":              KindUserNotFound,
	"INVALID_PASSWORD":            KindWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   KindInvalidCredential,
	"INVALID_IDP_RESPONSE":        KindInvalidCredential,
	"USER_DISABLED":               KindInvalidCredential,
	"TOKEN_EXPIRED":               KindInvalidCredential,
	"INVALID_REFRESH_TOKEN":       KindInvalidCredential,
	"INVALID_GRANT":               KindInvalidCredential,
	"WEAK_PASSWORD":               KindWeakPassword,
	"INVALID_EMAIL":               KindInvalidEmail,
	"MISSING_EMAIL":               KindInvalidEmail,
	"TOO_MANY_ATTEMPTS_TRY_LATER": KindTooManyRequests,
	"QUOTA_EXCEEDED":              KindTooManyRequests,
	"CONFIGURATION_NOT_FOUND":     KindConfiguration,
	"OPERATION_NOT_ALLOWED":       KindConfiguration,
	"INVALID_PROVIDER_ID":         KindConfiguration,
	"API_KEY_INVALID":             KindConfiguration,
	"INVALID_API_KEY":             KindConfiguration,
	"PROJECT_NOT_FOUND":           KindConfiguration,
	"UNAUTHORIZED_DOMAIN":         KindUnauthorizedDomain,
	"INVALID_CONTINUE_URI":        KindUnauthorizedDomain,
	"INVALID_SESSION_ID":          KindCancelled,
	"MISSING_OR_INVALID_NONCE":    KindCancelled,
}

func mapFirebaseError(err error) error {
	var netErr *firebase.NetworkError
	if errors.As(err, &netErr) {
		return newError(KindNetwork, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindNetwork, err)
	}

	var apiErr *firebase.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := firebaseKinds[apiErr.Code]; ok {
			return newError(kind, err)
		}
		if strings.HasPrefix(apiErr.Code, "API key not valid") {
			return newError(KindConfiguration, err)
		}
		if apiErr.Status == 429 {
			return newError(KindTooManyRequests, err)
		}
	}
	return newError(KindInternal, err)
}
