package handlers

import (
	"net/http"
	"strings"

	"github.com/iyunix/go-sage/internal/services"
)

// FrontendLogPayload defines the structure for logs coming from the browser.
type FrontendLogPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

type LogHandler struct {
	logger services.Logger
}

func NewLogHandler(logger services.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// LogFrontendEvent writes a browser log event to the server log.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kv := []interface{}{"message", payload.Message, "context", payload.Context}
	switch strings.ToLower(payload.Level) {
	case "error":
		h.logger.Error("client log", kv...)
	case "warn", "warning":
		h.logger.Warn("client log", kv...)
	case "debug":
		h.logger.Debug("client log", kv...)
	default:
		h.logger.Info("client log", kv...)
	}

	w.WriteHeader(http.StatusNoContent)
}
