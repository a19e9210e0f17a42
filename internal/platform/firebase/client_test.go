package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURLs(srv.URL+"/v1", srv.URL+"/token-v1"))
}

func TestClient_SignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "reader@example.com", body["email"])
		assert.Equal(t, true, body["returnSecureToken"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "reader@example.com",
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
		})
	})

	res, err := client.SignInWithPassword(context.Background(), "reader@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.LocalID)
	assert.Equal(t, "3600", res.ExpiresIn)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "plain code", body: `{"error":{"code":400,"message":"EMAIL_EXISTS"}}`, wantCode: "EMAIL_EXISTS"},
		{name: "code with detail", body: `{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`, wantCode: "WEAK_PASSWORD"},
		{name: "flat error", body: `{"error":"invalid_grant"}`, wantCode: "INVALID_GRANT"},
		{name: "garbage", body: `oops`, wantCode: "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SignUp(context.Background(), "a@b.co", "x")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		})
	}
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SignUp(context.Background(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient("k", WithBaseURLs(srv.URL, srv.URL))

	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "secret1")
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestClient_CreateAuthURIAndIdp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/v1/accounts:createAuthUri":
			assert.Equal(t, "google.com", body["providerId"])
			assert.Equal(t, "email profile", body["oauthScope"])
			assert.Equal(t, map[string]any{"prompt": "select_account"}, body["customParameter"])
			_ = json.NewEncoder(w).Encode(map[string]any{"authUri": "https://accounts.google.com/o/oauth2/auth?x=1", "sessionId": "sess-1"})
		case "/v1/accounts:signInWithIdp":
			assert.Equal(t, "sess-1", body["sessionId"])
			assert.Equal(t, "https://app.example/cb?code=abc", body["requestUri"])
			_ = json.NewEncoder(w).Encode(map[string]any{"localId": "uid-2", "providerId": "google.com", "idToken": "t", "refreshToken": "r", "expiresIn": "3600"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	start, err := client.CreateAuthURI(context.Background(), CreateAuthURIRequest{
		ProviderID:      "google.com",
		ContinueURI:     "https://app.example/cb",
		OAuthScope:      "email profile",
		CustomParameter: map[string]string{"prompt": "select_account"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", start.SessionID)

	res, err := client.SignInWithIdp(context.Background(), "https://app.example/cb?code=abc", start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "google.com", res.ProviderID)
}

func TestClient_RefreshToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-v1/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id_token": "new-id", "refresh_token": "new-refresh", "expires_in": "3600", "user_id": "uid-1"})
	})

	res, err := client.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-id", res.IDToken)
	assert.Equal(t, "new-refresh", res.RefreshToken)
}
