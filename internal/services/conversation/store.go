// File: internal/services/conversation/store.go
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iyunix/go-sage/internal/domain"
	chatrepo "github.com/iyunix/go-sage/internal/repository/chat"
	msgrepo "github.com/iyunix/go-sage/internal/repository/message"
	"github.com/iyunix/go-sage/internal/services"
)

const (
	// ListLimit caps conversation listings.
	ListLimit = 50
	// PreviewLength is the rune length of the lastMessage preview.
	PreviewLength = 100
	// PopularTopicsLimit caps the ranking returned by Stats.
	PopularTopicsLimit = 5
)

// Store maps conversation operations onto the chat and message repositories.
// Reads degrade to empty results and log; writes return their error.
type Store struct {
	chats    chatrepo.ChatRepository
	messages msgrepo.MessageRepository
	logger   services.Logger
}

func NewStore(chats chatrepo.ChatRepository, messages msgrepo.MessageRepository, logger services.Logger) (*Store, error) {
	if chats == nil {
		return nil, errors.New("chat repository cannot be nil")
	}
	if messages == nil {
		return nil, errors.New("message repository cannot be nil")
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &Store{chats: chats, messages: messages, logger: logger}, nil
}

// CreateConversation writes a new chat with the default title and no messages.
// An empty ownerID is stored as the anonymous owner.
func (s *Store) CreateConversation(ctx context.Context, ownerID string, persona domain.Persona) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		ownerID = domain.AnonymousOwner
	}
	chat, err := s.chats.Create(ctx, &domain.Chat{
		Title:   domain.DefaultChatTitle,
		OwnerID: ownerID,
		Persona: persona,
	})
	if err != nil {
		s.logger.Error("failed to create conversation", "owner_id", ownerID, "persona", persona, "error", err)
		return "", fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created", "chat_id", chat.ID, "owner_id", ownerID, "persona", persona)
	return chat.ID, nil
}

// ListConversations returns up to ListLimit chats, most recently updated
// first. Failures yield an empty slice.
func (s *Store) ListConversations(ctx context.Context, filter domain.ChatFilter) []domain.Chat {
	chats, err := s.chats.List(ctx, filter, ListLimit)
	if err != nil {
		s.logger.Error("failed to list conversations", "owner_id", filter.OwnerID, "persona", filter.Persona, "error", err)
		return []domain.Chat{}
	}
	if chats == nil {
		return []domain.Chat{}
	}
	return chats
}

// GetConversation returns nil when the chat is missing or the read fails.
func (s *Store) GetConversation(ctx context.Context, chatID string) *domain.Chat {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, chatrepo.ErrChatNotFound) {
			s.logger.Error("failed to load conversation", "chat_id", chatID, "error", err)
		}
		return nil
	}
	return chat
}

// AppendMessage upserts msg under its own ID and then bumps the chat's counter
// and preview. The two writes are independent; a failure between them leaves
// the counter behind.
func (s *Store) AppendMessage(ctx context.Context, chatID string, msg *domain.Message) error {
	if chatID == "" {
		return errors.New("chat ID is required")
	}
	if msg == nil || msg.ID == "" {
		return errors.New("message with an ID is required")
	}

	if err := s.messages.Upsert(ctx, chatID, msg); err != nil {
		s.logger.Error("failed to save message", "chat_id", chatID, "message_id", msg.ID, "error", err)
		return fmt.Errorf("save message: %w", err)
	}
	if err := s.chats.RecordMessage(ctx, chatID, truncateRunes(msg.Content, PreviewLength)); err != nil {
		s.logger.Error("failed to update conversation summary", "chat_id", chatID, "error", err)
		return fmt.Errorf("update conversation summary: %w", err)
	}
	return nil
}

// ListMessages returns the chat's messages oldest first, or an empty slice.
func (s *Store) ListMessages(ctx context.Context, chatID string) []domain.Message {
	msgs, err := s.messages.FindByChatID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to list messages", "chat_id", chatID, "error", err)
		return []domain.Message{}
	}
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}

// SubscribeMessages calls onUpdate with the full ordered list on every change.
// Listener errors are logged and never reach onUpdate.
func (s *Store) SubscribeMessages(ctx context.Context, chatID string, onUpdate func([]domain.Message)) msgrepo.UnsubscribeFunc {
	return s.messages.Subscribe(ctx, chatID, onUpdate, func(err error) {
		s.logger.Error("message subscription error", "chat_id", chatID, "error", err)
	})
}

// DeleteConversation removes the chat and then its messages. It is not atomic:
// an interruption can leave orphaned messages behind.
func (s *Store) DeleteConversation(ctx context.Context, chatID string) error {
	if err := s.chats.Delete(ctx, chatID); err != nil {
		s.logger.Error("failed to delete conversation", "chat_id", chatID, "error", err)
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, err := s.messages.DeleteByChatID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to delete conversation messages", "chat_id", chatID, "deleted", n, "error", err)
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	s.logger.Info("conversation deleted", "chat_id", chatID, "messages", n)
	return nil
}

// SaveLearningContext overwrites the whole embedded learning context.
func (s *Store) SaveLearningContext(ctx context.Context, chatID string, lc *domain.LearningContext) error {
	if err := s.chats.SaveLearningContext(ctx, chatID, lc); err != nil {
		s.logger.Error("failed to save learning context", "chat_id", chatID, "error", err)
		return fmt.Errorf("save learning context: %w", err)
	}
	return nil
}

// GetLearningContext returns nil when the chat has none or cannot be read.
func (s *Store) GetLearningContext(ctx context.Context, chatID string) *domain.LearningContext {
	chat := s.GetConversation(ctx, chatID)
	if chat == nil {
		return nil
	}
	return chat.LearningContext
}

func (s *Store) UpdateTitle(ctx context.Context, chatID, title string) error {
	if err := s.chats.UpdateTitle(ctx, chatID, title); err != nil {
		s.logger.Error("failed to update title", "chat_id", chatID, "error", err)
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

// Stats totals chats and messages for ownerID (everyone when empty) and ranks
// learning-context topics. Failures yield zeroed stats.
func (s *Store) Stats(ctx context.Context, ownerID string) domain.ChatStats {
	stats := domain.ChatStats{PopularTopics: []domain.TopicCount{}}

	chats, err := s.chats.ListAll(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to compute chat stats", "owner_id", ownerID, "error", err)
		return stats
	}

	counts := make(map[string]int)
	for _, c := range chats {
		stats.TotalChats++
		stats.TotalMessages += c.MessageCount
		if c.LearningContext != nil && c.LearningContext.Topic != "" {
			counts[c.LearningContext.Topic]++
		}
	}

	for topic, n := range counts {
		stats.PopularTopics = append(stats.PopularTopics, domain.TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(stats.PopularTopics, func(i, j int) bool {
		a, b := stats.PopularTopics[i], stats.PopularTopics[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Topic < b.Topic
	})
	if len(stats.PopularTopics) > PopularTopicsLimit {
		stats.PopularTopics = stats.PopularTopics[:PopularTopicsLimit]
	}
	return stats
}
