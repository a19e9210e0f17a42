package profile

import (
	"errors"
	"net/http"

	"hamarabooks/internal/httpx"
	"hamarabooks/internal/identity"

	"go.uber.org/zap"
)

// NoticeUpdated is returned in meta after a successful profile edit.
const NoticeUpdated = "Profile updated successfully!"

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

type updateRequest struct {
	Phone          string   `json:"phone" validate:"max=20"`
	Address        string   `json:"address" validate:"max=200"`
	DateOfBirth    string   `json:"date_of_birth"`
	FavoriteGenres []string `json:"favorite_genres" validate:"max=10,dive,max=40"`
	City           string   `json:"city" validate:"max=100"`
	State          string   `json:"state"`
	Pincode        string   `json:"pincode" validate:"omitempty,len=6,numeric"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type themeResponse struct {
	Theme Theme `json:"theme"`
}

// Get handles GET /v1/profile
// @Summary Get own profile
// @Description The signed-in reader with details, cart and wishlist stats and order history
// @Tags profile
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/profile [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, p, nil)
}

// Update handles PUT /v1/profile
// @Summary Edit own profile
// @Tags profile
// @Accept json
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/profile [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.UpdateDetails(r.Context(), httpx.ClientIDFrom(r), Details{
		Phone:          req.Phone,
		Address:        req.Address,
		DateOfBirth:    req.DateOfBirth,
		FavoriteGenres: req.FavoriteGenres,
		City:           req.City,
		State:          req.State,
		Pincode:        req.Pincode,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, p, map[string]any{"notice": NoticeUpdated})
}

// Orders handles GET /v1/profile/orders
// @Summary Order history
// @Tags profile
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/profile/orders [get]
func (h *HTTPHandler) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.SignedInOrders(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, orders, map[string]any{"total": len(orders)})
}

// Theme handles GET /v1/theme
// @Summary Display theme of this client
// @Tags preferences
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/theme [get]
func (h *HTTPHandler) Theme(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Theme(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, themeResponse{Theme: t}, nil)
}

// SetTheme handles PUT /v1/theme
// @Summary Choose light or dark
// @Tags preferences
// @Accept json
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/theme [put]
func (h *HTTPHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	t, err := h.service.SetTheme(r.Context(), httpx.ClientIDFrom(r), Theme(req.Theme))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, themeResponse{Theme: t}, nil)
}

// ToggleTheme handles POST /v1/theme/toggle
// @Summary Flip between light and dark
// @Tags preferences
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/theme/toggle [post]
func (h *HTTPHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.ToggleTheme(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, themeResponse{Theme: t}, nil)
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FieldError
	switch {
	case errors.Is(err, identity.ErrNotSignedIn):
		httpx.JSONError(w, r, http.StatusUnauthorized, "NOT_SIGNED_IN", "Please sign in", nil)
	case errors.As(err, &fe):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input",
			[]httpx.ErrorDetail{{Field: fe.Field, Message: fe.Message}})
	default:
		h.logger.Error("profile request", zap.Error(err), zap.String("client_id", httpx.ClientIDFrom(r)))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
