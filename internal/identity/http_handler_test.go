package identity

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hamarabooks/internal/httpx"
	"hamarabooks/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *Service, *MockProvider) {
	t.Helper()
	svc, provider := newTestService(t)
	return NewHTTPHandler(svc, "https://api.hamarabooks.test/v1/auth/federated/callback", zap.NewNop()), svc, provider
}

func TestHTTPHandler_SignUp(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		setup    func(p *MockProvider)
		wantCode int
		wantErr  string
	}{
		{
			name:     "created",
			body:     map[string]any{"email": "reader@example.com", "password": "secret1", "confirm_password": "secret1"},
			setup:    func(p *MockProvider) { p.EXPECT().SignUp(gomock.Any(), "reader@example.com", "secret1").Return(testSession("u1"), nil) },
			wantCode: http.StatusCreated,
		},
		{
			name:     "invalid email",
			body:     map[string]any{"email": "nope", "password": "secret1", "confirm_password": "secret1"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "mismatch",
			body:     map[string]any{"email": "reader@example.com", "password": "secret1", "confirm_password": "secret2"},
			wantCode: http.StatusBadRequest,
			wantErr:  "PASSWORD_MISMATCH",
		},
		{
			name: "duplicate",
			body: map[string]any{"email": "reader@example.com", "password": "secret1", "confirm_password": "secret1"},
			setup: func(p *MockProvider) {
				p.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, newError(KindDuplicateAccount, nil))
			},
			wantCode: http.StatusConflict,
			wantErr:  "DUPLICATE_ACCOUNT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, provider := newTestHandler(t)
			if tt.setup != nil {
				tt.setup(provider)
			}

			w := httptest.NewRecorder()
			h.SignUp(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/signup", tt.body, client))

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantErr, resp.ErrorCode())
			if tt.wantErr == "" {
				assert.Equal(t, true, resp.Data()["signed_in"])
				user := resp.Data()["user"].(map[string]any)
				assert.Equal(t, "u1", user["uid"])
				assert.NotContains(t, user, "id_token")
				assert.NotContains(t, user, "refresh_token")
			}
		})
	}
}

func TestHTTPHandler_SignInErrorMessage(t *testing.T) {
	h, _, provider := newTestHandler(t)
	provider.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, newError(KindTooManyRequests, nil))

	w := httptest.NewRecorder()
	h.SignIn(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/signin",
		map[string]any{"email": "reader@example.com", "password": "secret1"}, client))

	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", resp.ErrorCode())
	assert.Equal(t, "Too many failed attempts. Please try again later", resp.Body["error"].(map[string]any)["message"])
}

func TestHTTPHandler_SessionLifecycle(t *testing.T) {
	h, _, provider := newTestHandler(t)
	provider.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(testSession("u1"), nil)

	session := func() testutil.RecordResponse {
		w := httptest.NewRecorder()
		h.Session(w, testutil.NewClientRequest(http.MethodGet, "/v1/auth/session", nil, client))
		return testutil.RecordHTTPResponse(w)
	}

	resp := session()
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, resp.Data()["signed_in"])
	assert.Nil(t, resp.Data()["user"])

	w := httptest.NewRecorder()
	h.SignIn(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/signin",
		map[string]any{"email": "u1@example.com", "password": "secret1"}, client))
	require.Equal(t, http.StatusOK, w.Code)

	resp = session()
	assert.Equal(t, true, resp.Data()["signed_in"])
	assert.Equal(t, "u1@example.com", resp.Data()["user"].(map[string]any)["email"])

	w = httptest.NewRecorder()
	h.SignOut(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/signout", nil, client))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, false, session().Data()["signed_in"])
}

func TestHTTPHandler_Federated(t *testing.T) {
	h, _, provider := newTestHandler(t)
	provider.EXPECT().StartFederated(gomock.Any()).
		Return(&FederatedAuth{AuthURI: "https://accounts.google.com/auth", SessionID: "fs-1"}, nil).Times(2)
	provider.EXPECT().CompleteFederated(gomock.Any(),
		"https://api.hamarabooks.test/v1/auth/federated/callback?state=s&code=c", "fs-1").
		Return(testSession("g1"), nil)

	t.Run("mobile starts a redirect", func(t *testing.T) {
		r := testutil.NewClientRequest(http.MethodPost, "/v1/auth/federated", map[string]any{"popup_available": true}, client)
		r.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14)")
		w := httptest.NewRecorder()
		h.SignInFederated(w, r)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "redirect", resp.Data()["mode"])
		assert.Equal(t, "https://accounts.google.com/auth", resp.Data()["auth_uri"])
	})

	t.Run("fallback rejects unknown reason", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FallbackToRedirect(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/federated/fallback",
			map[string]any{"reason": "gremlins"}, client))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fallback after blocked popup", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FallbackToRedirect(w, testutil.NewClientRequest(http.MethodPost, "/v1/auth/federated/fallback",
			map[string]any{"reason": "popup_blocked"}, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "redirect", resp.Data()["mode"])
	})

	t.Run("callback", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.CompleteFederated(w, testutil.NewClientRequest(http.MethodGet, "/v1/auth/federated/callback?state=s&code=c", nil, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "redirect", resp.Meta()["mode"])
		assert.Equal(t, "g1", resp.Data()["user"].(map[string]any)["uid"])
	})

	t.Run("callback with provider error", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.CompleteFederated(w, testutil.NewClientRequest(http.MethodGet, "/v1/auth/federated/callback?error=access_denied", nil, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "CANCELLED", resp.ErrorCode())
	})
}

func TestHTTPHandler_Events(t *testing.T) {
	h, svc, provider := newTestHandler(t)
	h.heartbeat = 10 * time.Millisecond
	provider.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(testSession("u1"), nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Events(w, r.WithContext(httpx.ContextWithClient(r.Context(), client)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := bufio.NewScanner(res.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, ": connected", lines.Text())

	_, err = svc.SignIn(context.Background(), client, "u1@example.com", "secret1")
	require.NoError(t, err)

	var event, data string
	for lines.Scan() {
		line := lines.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	assert.Equal(t, "signed_in", event)
	assert.Contains(t, data, `"uid":"u1"`)
	assert.NotContains(t, data, "refresh")
}
