package contact

import (
	"errors"
	"net/http"

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

type submitRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Info handles GET /v1/contact
// @Summary Contact channels and FAQs
// @Tags contact
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/contact [get]
func (h *HTTPHandler) Info(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.svc.Info(), nil)
}

// Submit handles POST /v1/contact
// @Summary Send a message
// @Tags contact
// @Accept json
// @Produce json
// @Param request body submitRequest true "Message"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/contact [post]
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	m, err := h.svc.Submit(r.Context(), httpx.ClientIDFrom(r), req.Name, req.Email, req.Subject, req.Message)
	if errors.Is(err, ErrIncomplete) {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Please fill in all fields", nil)
		return
	}
	if err != nil {
		h.logger.Error("contact submit failed", zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONCreated(w, r, m, map[string]any{"notice": NoticeSent})
}
