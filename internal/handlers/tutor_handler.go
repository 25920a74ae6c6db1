// File: internal/handlers/tutor_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/dtos"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/tutor"
)

// SessionProvider hands out the caller's persona sessions.
type SessionProvider interface {
	Session(ctx context.Context, persona domain.Persona) (*tutor.Controller, error)
	Owner(ctx context.Context) string
	Invalidate(ctx context.Context, ownerID, chatID string)
}

// TutorHandler exposes the persona sessions over HTTP.
type TutorHandler struct {
	sessions SessionProvider
	renderer dtos.HTMLRenderer
	logger   services.Logger
}

func NewTutorHandler(sessions SessionProvider, renderer dtos.HTMLRenderer, logger services.Logger) *TutorHandler {
	return &TutorHandler{sessions: sessions, renderer: renderer, logger: logger}
}

// session resolves {persona} and the caller's controller for it. It writes
// the error response itself and returns nil on failure.
func (h *TutorHandler) session(w http.ResponseWriter, r *http.Request) *tutor.Controller {
	persona, ok := domain.ParsePersona(mux.Vars(r)["persona"])
	if !ok {
		writeError(w, "Unknown persona", http.StatusNotFound)
		return nil
	}
	c, err := h.sessions.Session(r.Context(), persona)
	if err != nil {
		h.logger.Error("failed to open tutor session", "persona", persona, "error", err)
		writeTutorError(w, err)
		return nil
	}
	return c
}

// GetSession handles GET /api/personas/{persona}/session.
func (h *TutorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(c.Snapshot()))
}

// Submit handles POST /api/personas/{persona}/messages.
func (h *TutorHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dtos.SubmitRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c := h.session(w, r)
	if c == nil {
		return
	}

	snap, err := c.Submit(r.Context(), req.Text, req.Model)
	if err != nil {
		writeTutorError(w, err)
		return
	}
	h.flush(r, c)
	writeJSON(w, http.StatusOK, h.sessionDTO(snap))
}

// NewChat handles POST /api/personas/{persona}/chats.
func (h *TutorHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	if err := c.NewConversation(r.Context()); err != nil {
		writeTutorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.sessionDTO(c.Snapshot()))
}

// SelectChat handles POST /api/personas/{persona}/chats/{id}/select.
func (h *TutorHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	if err := c.SwitchConversation(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeTutorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(c.Snapshot()))
}

// flush waits for the session's queued writes so follow-up reads through
// the chat endpoints see them.
func (h *TutorHandler) flush(r *http.Request, c *tutor.Controller) {
	if err := c.Flush(r.Context()); err != nil {
		h.logger.Warn("session writes still pending", "persona", c.Persona(), "error", err)
	}
}

func (h *TutorHandler) sessionDTO(s tutor.Snapshot) dtos.SessionDTO {
	return dtos.SessionDTO{
		Persona:         s.Persona,
		State:           s.State.String(),
		Chat:            dtos.ToChatDTO(s.Chat),
		Messages:        dtos.ToMessageDTOs(s.Messages, h.renderer),
		LearningContext: s.LearningContext,
	}
}
