package chat

import (
	"context"
	"errors"

	"github.com/iyunix/go-sage/internal/domain"
)

var ErrChatNotFound = errors.New("chat not found")

const chatsCollection = "chats"

// ChatRepository handles chat documents. Message bodies live in the message
// repository; this one only keeps the denormalized summary fields.
type ChatRepository interface {
	// Create assigns an ID when chat.ID is empty and stamps both timestamps.
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, chatID string) (*domain.Chat, error)
	// List returns at most limit chats, most recently active first.
	List(ctx context.Context, filter domain.ChatFilter, limit int) ([]domain.Chat, error)
	// ListAll returns every chat of ownerID (every chat when ownerID is empty).
	ListAll(ctx context.Context, ownerID string) ([]domain.Chat, error)
	UpdateTitle(ctx context.Context, chatID, title string) error
	// RecordMessage bumps the message counter, replaces the preview and marks
	// activity. A missing chat is not an error.
	RecordMessage(ctx context.Context, chatID, preview string) error
	// SaveLearningContext replaces the whole embedded learning context.
	SaveLearningContext(ctx context.Context, chatID string, lc *domain.LearningContext) error
	Delete(ctx context.Context, chatID string) error
}
