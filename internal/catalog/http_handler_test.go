package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestHTTPHandler_Get(t *testing.T) {
	handler := NewHTTPHandler(New(testBooks()))

	t.Run("success with related", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/b3", nil)
		r.SetPathValue("id", "b3")

		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var detail struct {
			ID      string `json:"id"`
			Price   string `json:"price"`
			Related []Book `json:"related"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
		assert.Equal(t, "b3", detail.ID)
		assert.Equal(t, "6.99", detail.Price)
		assert.Equal(t, []string{"b4"}, ids(detail.Related))
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/nope", nil)
		r.SetPathValue("id", "nope")

		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
	})
}

func TestHTTPHandler_List(t *testing.T) {
	handler := NewHTTPHandler(New(testBooks()))

	t.Run("filtered", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/books?category=Fiction&sort=price-low", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		var books []Book
		require.NoError(t, json.Unmarshal(env.Data, &books))
		assert.Equal(t, []string{"b3", "b4"}, ids(books))
		assert.Equal(t, float64(2), env.Meta["total"])
	})

	t.Run("invalid sort", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/books?sort=random", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
	})
}

func TestHTTPHandler_Search(t *testing.T) {
	handler := NewHTTPHandler(New(testBooks()))

	tests := []struct {
		name string
		url  string
		want []string
	}{
		{name: "empty query", url: "/v1/search", want: []string{}},
		{name: "match", url: "/v1/search?q=Atomic", want: []string{"b1", "b4"}},
		{name: "match with filter", url: "/v1/search?q=atomic&category=Fiction", want: []string{"b4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Search(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			var books []Book
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &books))
			assert.Equal(t, tt.want, ids(books))
		})
	}
}

func TestHTTPHandler_Lists(t *testing.T) {
	handler := NewHTTPHandler(New(testBooks()))

	tests := []struct {
		name    string
		handler http.HandlerFunc
		url     string
	}{
		{name: "home", handler: handler.Home, url: "/v1/home"},
		{name: "categories", handler: handler.Categories, url: "/v1/categories"},
		{name: "authors", handler: handler.Authors, url: "/v1/authors"},
		{name: "suggestions", handler: handler.Suggestions, url: "/v1/search/suggestions?q=atom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, decode(t, w).Success)
		})
	}
}
