package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// SuccessResponse is the envelope of every 2xx body.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every 4xx and 5xx body.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Meta    any               `json:"meta,omitempty"`
}

type ErrorResponseBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func meta(r *http.Request, extra map[string]any) map[string]any {
	id := RequestIDFrom(r)
	if id == "" && len(extra) == 0 {
		return nil
	}
	m := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		m[k] = v
	}
	if id != "" {
		m["request_id"] = id
	}
	return m
}

func respond(w http.ResponseWriter, status int, body any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSONSuccess writes a 200 envelope. meta entries are merged with the request ID.
func JSONSuccess(w http.ResponseWriter, r *http.Request, data any, m map[string]any) {
	respond(w, http.StatusOK, SuccessResponse{Success: true, Data: data, Meta: meta(r, m)})
}

func JSONCreated(w http.ResponseWriter, r *http.Request, data any, m map[string]any) {
	respond(w, http.StatusCreated, SuccessResponse{Success: true, Data: data, Meta: meta(r, m)})
}

func JSONNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, details []ErrorDetail) {
	respond(w, status, ErrorResponse{
		Error: ErrorResponseBody{Code: code, Message: message, Details: details},
		Meta:  meta(r, nil),
	})
}

// DecodeJSON decodes the request body into dst and validates it. On failure the
// error response has already been written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
	case errors.As(err, &tooLarge):
		JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
		return false
	case errors.Is(err, io.EOF):
		JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Request body is required", nil)
		return false
	default:
		JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return false
	}

	if details := ValidateStruct(dst); len(details) > 0 {
		JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return false
	}
	return true
}
