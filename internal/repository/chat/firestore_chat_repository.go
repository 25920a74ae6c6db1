// File: internal/repository/chat/firestore_chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iyunix/go-sage/internal/domain"
)

// firestoreChatRepository stores chats as documents of the top-level "chats"
// collection, keyed by chat ID.
type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) ChatRepository {
	return &firestoreChatRepository{client: client}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if chat == nil || chat.OwnerID == "" {
		return nil, errors.New("validation failed: owner ID is required")
	}

	ref := r.client.Collection(chatsCollection).NewDoc()
	if chat.ID != "" {
		ref = r.client.Collection(chatsCollection).Doc(chat.ID)
	}

	_, err := ref.Set(ctx, map[string]interface{}{
		"title":        chat.Title,
		"userId":       chat.OwnerID,
		"persona":      string(chat.Persona),
		"messageCount": 0,
		"createdAt":    firestore.ServerTimestamp,
		"timestamp":    firestore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat %s: %w", ref.ID, err)
	}
	chat.ID = ref.ID
	return chat, nil
}

func (r *firestoreChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}
	snap, err := r.client.Collection(chatsCollection).Doc(chatID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat %s: %w", chatID, err)
	}
	return decodeChat(snap)
}

func (r *firestoreChatRepository) List(ctx context.Context, filter domain.ChatFilter, limit int) ([]domain.Chat, error) {
	q := r.client.Collection(chatsCollection).Query
	if filter.OwnerID != "" {
		q = q.Where("userId", "==", filter.OwnerID)
	}
	if filter.Persona != "" {
		q = q.Where("persona", "==", string(filter.Persona))
	}
	q = q.OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(ctx, q)
}

func (r *firestoreChatRepository) ListAll(ctx context.Context, ownerID string) ([]domain.Chat, error) {
	q := r.client.Collection(chatsCollection).Query
	if ownerID != "" {
		q = q.Where("userId", "==", ownerID)
	}
	return r.collect(ctx, q)
}

func (r *firestoreChatRepository) UpdateTitle(ctx context.Context, chatID, title string) error {
	_, err := r.client.Collection(chatsCollection).Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "title", Value: title},
	})
	if status.Code(err) == codes.NotFound {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("update title of chat %s: %w", chatID, err)
	}
	return nil
}

// RecordMessage uses a server-side increment so concurrent writers cannot
// lose counts to each other.
func (r *firestoreChatRepository) RecordMessage(ctx context.Context, chatID, preview string) error {
	_, err := r.client.Collection(chatsCollection).Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "messageCount", Value: firestore.Increment(1)},
		{Path: "timestamp", Value: firestore.ServerTimestamp},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record message on chat %s: %w", chatID, err)
	}
	return nil
}

func (r *firestoreChatRepository) SaveLearningContext(ctx context.Context, chatID string, lc *domain.LearningContext) error {
	var value interface{}
	if lc != nil {
		value = map[string]interface{}{
			"topic":             lc.Topic,
			"userLevel":         string(lc.UserLevel),
			"previousQuestions": nonNil(lc.PreviousQuestions),
			"userInsights":      nonNil(lc.UserInsights),
			"currentFocus":      lc.CurrentFocus,
			"updatedAt":         firestore.ServerTimestamp,
		}
	} else {
		value = firestore.Delete
	}

	_, err := r.client.Collection(chatsCollection).Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "learningContext", Value: value},
	})
	if status.Code(err) == codes.NotFound {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("save learning context of chat %s: %w", chatID, err)
	}
	return nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, chatID string) error {
	if _, err := r.client.Collection(chatsCollection).Doc(chatID).Delete(ctx); err != nil {
		return fmt.Errorf("delete chat %s: %w", chatID, err)
	}
	return nil
}

func (r *firestoreChatRepository) collect(ctx context.Context, q firestore.Query) ([]domain.Chat, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	chats := make([]domain.Chat, 0, len(docs))
	for _, doc := range docs {
		chat, err := decodeChat(doc)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, nil
}

func decodeChat(snap *firestore.DocumentSnapshot) (*domain.Chat, error) {
	var chat domain.Chat
	if err := snap.DataTo(&chat); err != nil {
		return nil, fmt.Errorf("decode chat %s: %w", snap.Ref.ID, err)
	}
	chat.ID = snap.Ref.ID
	return &chat, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
