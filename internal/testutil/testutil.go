package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"hamarabooks/internal/httpx"
	"hamarabooks/internal/platform/crypto"
)

// TestSecret signs client tokens in tests.
const TestSecret = "test-client-secret"

// ClientToken issues a client token for clientID signed with TestSecret.
func ClientToken(clientID string) string {
	token, _ := crypto.GenerateClientToken(TestSecret, clientID, time.Hour)
	return token
}

// NewRequest builds a request with body marshalled as JSON. A nil body sends none.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewClientRequest creates a request already scoped to clientID, as if it had
// passed through the client middleware.
func NewClientRequest(method, path string, body any, clientID string) *http.Request {
	r := NewRequest(method, path, body)
	return r.WithContext(httpx.ContextWithClient(r.Context(), clientID))
}

// NewRequestWithToken creates a request carrying a signed client token.
func NewRequestWithToken(method, path string, body any, clientID string) *http.Request {
	r := NewRequest(method, path, body)
	r.Header.Set("Authorization", "Bearer "+ClientToken(clientID))
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// Data returns the envelope's data object, or nil when data is not an object.
func (rr RecordResponse) Data() map[string]any {
	data, _ := rr.Body["data"].(map[string]any)
	return data
}

// Meta returns the envelope's meta object.
func (rr RecordResponse) Meta() map[string]any {
	meta, _ := rr.Body["meta"].(map[string]any)
	return meta
}

// ErrorCode returns error.code of a failed envelope.
func (rr RecordResponse) ErrorCode() string {
	e, _ := rr.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

// RecordHTTPResponse decodes the recorded envelope. A body that is not a JSON
// object leaves Body nil.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	rr := RecordResponse{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &rr.Body)
	}
	return rr
}
