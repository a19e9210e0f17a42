package cart

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hamarabooks/internal/testutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHTTPHandler_Cart(t *testing.T) {
	handler := NewHTTPHandler(newTestService(), zap.NewNop())
	const client = "client-1"

	t.Run("add item", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.AddItem(w, testutil.NewClientRequest(http.MethodPost, "/v1/cart/items", map[string]any{"book_id": "b1"}, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, float64(1), resp.Data()["line_count"])
		assert.Equal(t, "Added to cart!", resp.Meta()["notice"])
	})

	t.Run("add unknown book", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.AddItem(w, testutil.NewClientRequest(http.MethodPost, "/v1/cart/items", map[string]any{"book_id": "nope"}, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "BOOK_NOT_FOUND", resp.ErrorCode())
	})

	t.Run("add missing book id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.AddItem(w, testutil.NewClientRequest(http.MethodPost, "/v1/cart/items", map[string]any{}, client))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode())
	})

	quantityTests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantLines  float64
	}{
		{name: "set quantity", body: map[string]any{"quantity": 3}, wantStatus: http.StatusOK, wantLines: 1},
		{name: "quantity too high", body: map[string]any{"quantity": 100}, wantStatus: http.StatusBadRequest},
		{name: "quantity missing", body: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "quantity zero removes", body: map[string]any{"quantity": 0}, wantStatus: http.StatusOK, wantLines: 0},
	}
	for _, tt := range quantityTests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := testutil.NewClientRequest(http.MethodPatch, "/v1/cart/items/b1", tt.body, client)
			r.SetPathValue("id", "b1")
			handler.SetQuantity(w, r)

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantLines, resp.Data()["line_count"])
			}
		})
	}

	t.Run("remove and clear", func(t *testing.T) {
		handler.AddItem(httptest.NewRecorder(), testutil.NewClientRequest(http.MethodPost, "/v1/cart/items", map[string]any{"book_id": "b2"}, client))

		w := httptest.NewRecorder()
		r := testutil.NewClientRequest(http.MethodDelete, "/v1/cart/items/b2", nil, client)
		r.SetPathValue("id", "b2")
		handler.RemoveItem(w, r)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.Clear(w, testutil.NewClientRequest(http.MethodDelete, "/v1/cart", nil, client))
		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, float64(0), resp.Data()["line_count"])
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Get(w, testutil.NewClientRequest(http.MethodGet, "/v1/cart", nil, client))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
