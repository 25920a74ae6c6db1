// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/iyunix/go-sage/internal/domain"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// UnsubscribeFunc stops a live subscription. It is safe to call more than once.
type UnsubscribeFunc func()

type MessageRepository interface {
	// Upsert writes msg under chatID keyed by msg.ID, replacing any previous
	// message with the same ID. The timestamp is assigned by the store.
	Upsert(ctx context.Context, chatID string, msg *domain.Message) error
	// FindByChatID returns all messages of a chat, oldest first.
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	// DeleteByChatID removes every message of a chat and reports how many went.
	DeleteByChatID(ctx context.Context, chatID string) (int, error)
	// Subscribe calls onUpdate with the full ordered message list once right
	// away and again after changes. Several changes may arrive as one call.
	// The subscription ends when ctx is done or the returned func is called.
	Subscribe(ctx context.Context, chatID string, onUpdate func([]domain.Message), onError func(error)) UnsubscribeFunc
}
