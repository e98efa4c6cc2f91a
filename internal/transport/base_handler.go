package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/pkg/logger"
)

// BaseHandler provides the JSON envelope helpers shared by all HTTP handlers.
// Every response carries `success` and, on failure, a human-readable message.
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.L()
	}
	return &BaseHandler{Logger: lg}
}

// ErrorEnvelope is the failure body. The raw error string is echoed for
// parity with the original surface; 5xx causes are additionally logged.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}

// WriteJSON writes a JSON response.
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a failure envelope.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, ErrorEnvelope{Success: false, Message: message})
}

// HandleServiceError maps a service failure onto the wire. AppErrors carry
// their own status; anything else is an unexpected store/upstream failure.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		envelope := ErrorEnvelope{Success: false, Message: appErr.Message}
		if appErr.Cause != nil {
			envelope.Err = appErr.Cause.Error()
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("service error", "type", appErr.Type, "code", appErr.Code, "error", appErr.Error())
		}
		h.WriteJSON(w, appErr.StatusCode, envelope)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteJSON(w, http.StatusInternalServerError, ErrorEnvelope{
		Success: false,
		Message: "Server error",
		Err:     err.Error(),
	})
}
