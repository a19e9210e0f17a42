// Package firebase is a minimal client for the Firebase Auth REST API
// (Identity Toolkit and Secure Token services).
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1"
)

// Client calls the Firebase Auth REST endpoints. Requests are never retried.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	identityURL string
	tokenURL    string
	limiter     *rate.Limiter
}

type Option func(*Client)

// WithBaseURLs points the client at alternative Identity Toolkit and Secure
// Token hosts, such as the Auth emulator.
func WithBaseURLs(identityURL, tokenURL string) Option {
	return func(c *Client) {
		c.identityURL = strings.TrimRight(identityURL, "/")
		c.tokenURL = strings.TrimRight(tokenURL, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:      apiKey,
		identityURL: defaultIdentityURL,
		tokenURL:    defaultTokenURL,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is an error response from the REST API. Code is the symbolic
// reason, e.g. EMAIL_EXISTS or INVALID_PASSWORD.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("firebase: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("firebase: %s (%d)", e.Code, e.Status)
}

// NetworkError wraps transport failures.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "firebase: network: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// AuthResponse is the common shape of signUp, signInWithPassword and
// signInWithIdp responses.
type AuthResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	ProviderID   string `json:"providerId"`
	PhotoURL     string `json:"photoUrl"`
	FullName     string `json:"fullName"`
	IsNewUser    bool   `json:"isNewUser"`
}

type CreateAuthURIRequest struct {
	ProviderID      string            `json:"providerId"`
	ContinueURI     string            `json:"continueUri"`
	OAuthScope      string            `json:"oauthScope,omitempty"`
	CustomParameter map[string]string `json:"customParameter,omitempty"`
}

type CreateAuthURIResponse struct {
	AuthURI   string `json:"authUri"`
	SessionID string `json:"sessionId"`
}

// TokenResponse is the Secure Token refresh response.
type TokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	err := c.postJSON(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	err := c.postJSON(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateAuthURI(ctx context.Context, req CreateAuthURIRequest) (*CreateAuthURIResponse, error) {
	var res CreateAuthURIResponse
	if err := c.postJSON(ctx, "accounts:createAuthUri", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SignInWithIdp exchanges the identity provider's callback URL for a session.
func (c *Client) SignInWithIdp(ctx context.Context, requestURI, sessionID string) (*AuthResponse, error) {
	var res AuthResponse
	err := c.postJSON(ctx, "accounts:signInWithIdp", map[string]any{
		"requestUri":          requestURI,
		"sessionId":           sessionID,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	u := fmt.Sprintf("%s/token?key=%s", c.tokenURL, url.QueryEscape(c.apiKey))

	var res TokenResponse
	if err := c.do(ctx, u, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) postJSON(ctx context.Context, method string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/%s?key=%s", c.identityURL, method, url.QueryEscape(c.apiKey))
	return c.do(ctx, u, "application/json", bytes.NewReader(payload), target)
}

func (c *Client) do(ctx context.Context, u, contentType string, body io.Reader, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN"}

	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
		code, _, _ := strings.Cut(payload.Error.Message, " : ")
		apiErr.Code = strings.TrimSpace(code)
	} else {
		// Secure Token errors use {"error": "invalid_grant", ...} on some paths.
		var flat struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
			apiErr.Code = strings.ToUpper(flat.Error)
		}
	}
	return apiErr
}
