package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hamarabooks/internal/httpx"

	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

type HTTPHandler struct {
	svc         *Service
	callbackURL string
	logger      *zap.Logger
	heartbeat   time.Duration
}

// NewHTTPHandler wires the identity endpoints. callbackURL is the public URL of
// the federated callback endpoint, as registered with the provider.
func NewHTTPHandler(svc *Service, callbackURL string, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, callbackURL: callbackURL, logger: logger, heartbeat: heartbeatInterval}
}

// SessionView is a session without its provider tokens.
type SessionView struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	ProviderID  string    `json:"provider_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func ViewOf(s *Session) *SessionView {
	if s == nil {
		return nil
	}
	return &SessionView{
		UID:         s.UID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		ProviderID:  s.ProviderID,
		ExpiresAt:   s.ExpiresAt,
	}
}

type sessionResponse struct {
	SignedIn bool         `json:"signed_in"`
	User     *SessionView `json:"user"`
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type federatedRequest struct {
	PopupAvailable bool `json:"popup_available"`
}

type fallbackRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SignUp handles POST /v1/auth/signup
// @Summary Create account
// @Description Registers an email/password account with the identity provider and signs the client in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signUpRequest true "Credentials"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/auth/signup [post]
func (h *HTTPHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.svc.SignUp(r.Context(), httpx.ClientIDFrom(r), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, sessionResponse{SignedIn: true, User: ViewOf(sess)}, nil)
}

// SignIn handles POST /v1/auth/signin
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signInRequest true "Credentials"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 429 {object} httpx.ErrorResponse
// @Router /v1/auth/signin [post]
func (h *HTTPHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.svc.SignIn(r.Context(), httpx.ClientIDFrom(r), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sessionResponse{SignedIn: true, User: ViewOf(sess)}, nil)
}

// SignInFederated handles POST /v1/auth/federated
// @Summary Start Google sign-in
// @Description Returns the flow (popup or redirect) and the provider URL to open
// @Tags auth
// @Accept json
// @Produce json
// @Param request body federatedRequest false "Client capabilities"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/auth/federated [post]
func (h *HTTPHandler) SignInFederated(w http.ResponseWriter, r *http.Request) {
	var req federatedRequest
	if r.ContentLength != 0 && !httpx.DecodeJSON(w, r, &req) {
		return
	}

	env := Environment{UserAgent: r.UserAgent(), PopupAvailable: req.PopupAvailable}
	start, err := h.svc.SignInFederated(r.Context(), httpx.ClientIDFrom(r), env)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, start, nil)
}

// FallbackToRedirect handles POST /v1/auth/federated/fallback
// @Summary Retry Google sign-in as a redirect
// @Description Accepts popup_blocked or popup_closed; other reasons are reported back as errors
// @Tags auth
// @Accept json
// @Produce json
// @Param request body fallbackRequest true "Popup failure"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/auth/federated/fallback [post]
func (h *HTTPHandler) FallbackToRedirect(w http.ResponseWriter, r *http.Request) {
	var req fallbackRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	kind, ok := ParseKind(req.Reason)
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input",
			[]httpx.ErrorDetail{{Field: "reason", Message: "unknown failure reason"}})
		return
	}

	start, err := h.svc.FallbackToRedirect(r.Context(), httpx.ClientIDFrom(r), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, start, nil)
}

// CompleteFederated handles GET /v1/auth/federated/callback
// @Summary Finish Google sign-in
// @Description Landing endpoint for the identity provider redirect
// @Tags auth
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/auth/federated/callback [get]
func (h *HTTPHandler) CompleteFederated(w http.ResponseWriter, r *http.Request) {
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		h.fail(w, r, newError(KindCancelled, fmt.Errorf("provider returned %s", errCode)))
		return
	}

	sess, mode, err := h.svc.CompleteFederated(r.Context(), httpx.ClientIDFrom(r), h.requestURI(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sessionResponse{SignedIn: true, User: ViewOf(sess)}, map[string]any{"mode": mode})
}

func (h *HTTPHandler) requestURI(r *http.Request) string {
	base := h.callbackURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host + r.URL.Path
	}
	if r.URL.RawQuery == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + r.URL.RawQuery
}

// SignOut handles POST /v1/auth/signout
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /v1/auth/signout [post]
func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), httpx.ClientIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// Session handles GET /v1/auth/session
// @Summary Current session
// @Description Refreshes the ID token first when it has expired
// @Tags auth
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/auth/session [get]
func (h *HTTPHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Current(r.Context(), httpx.ClientIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sessionResponse{SignedIn: sess != nil, User: ViewOf(sess)}, nil)
}

type eventPayload struct {
	Type     EventType    `json:"type"`
	User     *SessionView `json:"user"`
	Redirect bool         `json:"redirect,omitempty"`
}

// Events handles GET /v1/auth/session/events
// @Summary Session transitions
// @Description Server-sent events, one per sign-in, sign-out or refresh. A newer stream for the same client ends this one.
// @Tags auth
// @Produce text/event-stream
// @Success 200
// @Router /v1/auth/session/events [get]
func (h *HTTPHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming unsupported", nil)
		return
	}

	ctx := r.Context()
	events := make(chan Event, observerBuffer)
	done := make(chan struct{})
	defer close(done)

	sub, err := h.svc.ObserveSession(ctx, httpx.ClientIDFrom(r), func(ev Event) {
		select {
		case events <- ev:
		case <-done:
		}
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer sub.Cancel()

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			data, err := json.Marshal(eventPayload{Type: ev.Type, User: ViewOf(ev.Session), Redirect: ev.Redirect})
			if err != nil {
				h.logger.Error("encode session event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotSignedIn) {
		httpx.JSONError(w, r, http.StatusUnauthorized, "NOT_SIGNED_IN", "Please sign in", nil)
		return
	}
	var ierr *Error
	if errors.As(err, &ierr) {
		status := ierr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			h.logger.Warn("identity provider failure", zap.Error(err), zap.String("client_id", httpx.ClientIDFrom(r)))
		}
		httpx.JSONError(w, r, status, strings.ToUpper(string(ierr.Kind)), ierr.Message(), nil)
		return
	}
	h.logger.Error("identity operation failed", zap.Error(err), zap.String("client_id", httpx.ClientIDFrom(r)))
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
