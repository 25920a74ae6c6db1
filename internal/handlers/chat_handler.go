// File: internal/handlers/chat_handler.go
package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/dtos"
	msgrepo "github.com/iyunix/go-sage/internal/repository/message"
	"github.com/iyunix/go-sage/internal/services"
)

// ChatStore is the part of conversation.Store the chat endpoints use.
type ChatStore interface {
	ListConversations(ctx context.Context, filter domain.ChatFilter) []domain.Chat
	GetConversation(ctx context.Context, chatID string) *domain.Chat
	ListMessages(ctx context.Context, chatID string) []domain.Message
	SubscribeMessages(ctx context.Context, chatID string, onUpdate func([]domain.Message)) msgrepo.UnsubscribeFunc
	DeleteConversation(ctx context.Context, chatID string) error
	Stats(ctx context.Context, ownerID string) domain.ChatStats
}

const (
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 5 * time.Second
)

type ChatHandler struct {
	store    ChatStore
	sessions SessionProvider
	renderer dtos.HTMLRenderer
	logger   services.Logger
	upgrader websocket.Upgrader
}

func NewChatHandler(store ChatStore, sessions SessionProvider, renderer dtos.HTMLRenderer, logger services.Logger) *ChatHandler {
	return &ChatHandler{
		store:    store,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// ownedChat loads {id} when the caller owns it. Other owners' chats are
// reported as missing.
func (h *ChatHandler) ownedChat(w http.ResponseWriter, r *http.Request) *domain.Chat {
	chatID := mux.Vars(r)["id"]
	chat := h.store.GetConversation(r.Context(), chatID)
	if chat == nil || chat.OwnerID != h.sessions.Owner(r.Context()) {
		writeError(w, "Chat not found", http.StatusNotFound)
		return nil
	}
	return chat
}

// GetUserChats handles GET /api/chats?persona=.
func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	filter := domain.ChatFilter{OwnerID: h.sessions.Owner(r.Context())}
	if p := r.URL.Query().Get("persona"); p != "" {
		persona, ok := domain.ParsePersona(p)
		if !ok {
			writeError(w, "Unknown persona", http.StatusBadRequest)
			return
		}
		filter.Persona = persona
	}
	writeJSON(w, http.StatusOK, dtos.ToChatDTOs(h.store.ListConversations(r.Context(), filter)))
}

// GetStats handles GET /api/chats/stats.
func (h *ChatHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats(r.Context(), h.sessions.Owner(r.Context())))
}

// GetChatMessages handles GET /api/chats/{id}/messages.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chat := h.ownedChat(w, r)
	if chat == nil {
		return
	}
	writeJSON(w, http.StatusOK, dtos.ToMessageDTOs(h.store.ListMessages(r.Context(), chat.ID), h.renderer))
}

// DeleteChat handles DELETE /api/chats/{id}.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chat := h.ownedChat(w, r)
	if chat == nil {
		return
	}
	if err := h.store.DeleteConversation(r.Context(), chat.ID); err != nil {
		writeError(w, "Could not delete chat", http.StatusInternalServerError)
		return
	}
	h.sessions.Invalidate(r.Context(), chat.OwnerID, chat.ID)
	w.WriteHeader(http.StatusNoContent)
}

// StreamMessages handles GET /api/chats/{id}/ws. Every change to the chat
// pushes the full ordered message list.
func (h *ChatHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	chat := h.ownedChat(w, r)
	if chat == nil {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "chat_id", chat.ID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-slot mailbox: a newer list replaces one not yet sent.
	updates := make(chan []domain.Message, 1)
	var mu sync.Mutex
	unsubscribe := h.store.SubscribeMessages(ctx, chat.ID, func(msgs []domain.Message) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case <-updates:
		default:
		}
		updates <- msgs
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msgs := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(dtos.ToMessageDTOs(msgs, h.renderer)); err != nil {
				h.logger.Debug("websocket write failed", "chat_id", chat.ID, "error", err)
				return
			}
		}
	}
}
