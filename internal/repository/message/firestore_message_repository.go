// File: internal/repository/message/firestore_message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iyunix/go-sage/internal/domain"
)

// firestoreMessageRepository keeps messages in chats/{chatID}/messages/{messageID}.
type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) MessageRepository {
	return &firestoreMessageRepository{client: client}
}

func (r *firestoreMessageRepository) collection(chatID string) *firestore.CollectionRef {
	return r.client.Collection(chatsCollection).Doc(chatID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) Upsert(ctx context.Context, chatID string, msg *domain.Message) error {
	if msg == nil || msg.ID == "" || chatID == "" {
		return errors.New("validation failed: chat ID and message ID are required")
	}

	data := map[string]interface{}{
		"id":        msg.ID,
		"content":   msg.Content,
		"isUser":    msg.IsUser,
		"timestamp": firestore.ServerTimestamp,
	}
	if msg.Category != "" {
		data["messageType"] = string(msg.Category)
	}

	if _, err := r.collection(chatID).Doc(msg.ID).Set(ctx, data); err != nil {
		return fmt.Errorf("upsert message %s in chat %s: %w", msg.ID, chatID, err)
	}
	msg.ChatID = chatID
	return nil
}

func (r *firestoreMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}
	docs, err := r.collection(chatID).OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("find messages of chat %s: %w", chatID, err)
	}
	return decodeMessages(chatID, docs)
}

// DeleteByChatID deletes documents one by one. An interruption leaves the
// remaining messages in place.
func (r *firestoreMessageRepository) DeleteByChatID(ctx context.Context, chatID string) (int, error) {
	iter := r.collection(chatID).Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return deleted, nil
		}
		if err != nil {
			return deleted, fmt.Errorf("list messages of chat %s: %w", chatID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return deleted, fmt.Errorf("delete message %s of chat %s: %w", doc.Ref.ID, chatID, err)
		}
		deleted++
	}
}

func (r *firestoreMessageRepository) Subscribe(ctx context.Context, chatID string, onUpdate func([]domain.Message), onError func(error)) UnsubscribeFunc {
	ctx, cancel := context.WithCancel(ctx)
	it := r.collection(chatID).OrderBy("timestamp", firestore.Asc).Snapshots(ctx)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			it.Stop()
		})
	}

	go func() {
		defer stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("message snapshot of chat %s: %w", chatID, err))
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if onError != nil && ctx.Err() == nil {
					onError(err)
				}
				continue
			}
			msgs, err := decodeMessages(chatID, docs)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onUpdate(msgs)
		}
	}()

	return stop
}

func decodeMessages(chatID string, docs []*firestore.DocumentSnapshot) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		var m domain.Message
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", doc.Ref.ID, err)
		}
		if m.ID == "" {
			m.ID = doc.Ref.ID
		}
		m.ChatID = chatID
		messages = append(messages, m)
	}
	return messages, nil
}
