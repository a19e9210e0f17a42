package wishlist

import (
	"errors"
	"net/http"

	"hamarabooks/internal/catalog"
	"hamarabooks/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	svc    *Service
	cart   CartAdder
	logger *zap.Logger
}

func NewHTTPHandler(svc *Service, cart CartAdder, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, cart: cart, logger: logger}
}

type addRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

// Get handles GET /v1/wishlist
// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/wishlist [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// Add handles POST /v1/wishlist
// @Summary Add book to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Param request body addRequest true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/wishlist [post]
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.Add(r.Context(), httpx.ClientIDFrom(r), req.BookID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, view, map[string]any{"notice": NoticeAdded})
}

// Contains handles GET /v1/wishlist/{id}
// @Summary Check wishlist membership
// @Tags wishlist
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/wishlist/{id} [get]
func (h *HTTPHandler) Contains(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := h.svc.Contains(r.Context(), httpx.ClientIDFrom(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"book_id": id, "in_wishlist": ok}, nil)
}

// Remove handles DELETE /v1/wishlist/{id}
// @Summary Remove book from wishlist
// @Tags wishlist
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/wishlist/{id} [delete]
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Remove(r.Context(), httpx.ClientIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": NoticeRemoved})
}

// Clear handles DELETE /v1/wishlist
// @Summary Clear wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/wishlist [delete]
func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Clear(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": NoticeCleared})
}

// MoveToCart handles POST /v1/wishlist/{id}/move-to-cart
// @Summary Move book to cart
// @Tags wishlist
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/wishlist/{id}/move-to-cart [post]
func (h *HTTPHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.MoveToCart(r.Context(), httpx.ClientIDFrom(r), r.PathValue("id"), h.cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"notice": NoticeMoved})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyInWishlist):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_IN_WISHLIST", NoticeDuplicate, nil)
	case errors.Is(err, ErrNotInWishlist):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_IN_WISHLIST", "Book is not in your wishlist", nil)
	case errors.Is(err, catalog.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found", nil)
	default:
		h.logger.Error("wishlist operation failed", zap.Error(err), zap.String("client_id", httpx.ClientIDFrom(r)))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
