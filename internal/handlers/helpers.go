// File: internal/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/iyunix/go-sage/internal/services/tutor"
)

const maxBodyBytes = 1 << 20

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeTutorError maps session errors onto status codes.
func writeTutorError(w http.ResponseWriter, err error) {
	var te *tutor.TutorError
	if !errors.As(err, &te) {
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	switch {
	case errors.Is(err, tutor.ErrBusy):
		writeError(w, "A reply is still being generated", http.StatusConflict)
	case te.Type == tutor.ErrTypeValidation:
		writeError(w, te.Message, http.StatusBadRequest)
	case te.Type == tutor.ErrTypeNotFound:
		writeError(w, "Chat not found", http.StatusNotFound)
	case te.Type == tutor.ErrTypeState:
		writeError(w, te.Message, http.StatusConflict)
	default:
		writeError(w, "Conversation storage is unavailable", http.StatusInternalServerError)
	}
}
