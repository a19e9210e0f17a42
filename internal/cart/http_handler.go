package cart

import (
	"errors"
	"net/http"

	"hamarabooks/internal/catalog"
	"hamarabooks/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHTTPHandler(svc *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type addItemRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=99"`
}

// Get handles GET /v1/cart
// @Summary Get cart
// @Description Cart lines priced at current catalog prices, with shipping and tax
// @Tags cart
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/cart [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// AddItem handles POST /v1/cart/items
// @Summary Add book to cart
// @Description Adds one copy; an existing line is incremented
// @Tags cart
// @Accept json
// @Produce json
// @Param request body addItemRequest true "Book"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/cart/items [post]
func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.Add(r.Context(), httpx.ClientIDFrom(r), req.BookID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": "Added to cart!"})
}

// SetQuantity handles PATCH /v1/cart/items/{id}
// @Summary Set line quantity
// @Description Quantity 0 removes the line; unknown lines are ignored
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body setQuantityRequest true "Quantity"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/cart/items/{id} [patch]
func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.SetQuantity(r.Context(), httpx.ClientIDFrom(r), r.PathValue("id"), *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// RemoveItem handles DELETE /v1/cart/items/{id}
// @Summary Remove line
// @Tags cart
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/cart/items/{id} [delete]
func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Remove(r.Context(), httpx.ClientIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": "Removed from cart"})
}

// Clear handles DELETE /v1/cart
// @Summary Clear cart
// @Tags cart
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/cart [delete]
func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Clear(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": "Cart cleared"})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found", nil)
		return
	}
	h.logger.Error("cart operation failed", zap.Error(err), zap.String("client_id", httpx.ClientIDFrom(r)))
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
