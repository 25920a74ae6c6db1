// File: internal/repository/message/gorm_message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-sage/internal/domain"
)

type gormMessageRepository struct {
	db  *gorm.DB
	hub *hub
}

func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db, hub: newHub()}
}

func (r *gormMessageRepository) Upsert(ctx context.Context, chatID string, msg *domain.Message) error {
	if err := r.validateMessageInput(chatID, msg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	row := *msg
	row.Seq = 0
	row.ChatID = chatID
	row.Timestamp = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "is_user", "category", "timestamp"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert message %s in chat %s: %w", msg.ID, chatID, err)
	}

	msg.ChatID = chatID
	msg.Timestamp = row.Timestamp
	r.hub.publish(chatID)
	return nil
}

func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp ASC, seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("find messages of chat %s: %w", chatID, err)
	}
	return messages, nil
}

func (r *gormMessageRepository) DeleteByChatID(ctx context.Context, chatID string) (int, error) {
	res := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&domain.Message{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete messages of chat %s: %w", chatID, res.Error)
	}
	r.hub.publish(chatID)
	return int(res.RowsAffected), nil
}

func (r *gormMessageRepository) Subscribe(ctx context.Context, chatID string, onUpdate func([]domain.Message), onError func(error)) UnsubscribeFunc {
	return r.hub.subscribe(ctx, chatID, r.FindByChatID, onUpdate, onError)
}

func (r *gormMessageRepository) validateMessageInput(chatID string, msg *domain.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	if chatID == "" {
		return errors.New("chat ID is required")
	}
	if strings.TrimSpace(msg.ID) == "" {
		return errors.New("message ID is required")
	}
	return nil
}
