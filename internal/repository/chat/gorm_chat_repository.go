// File: internal/repository/chat/gorm_chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iyunix/go-sage/internal/domain"
)

type gormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	chat.CreatedAt, chat.UpdatedAt = now, now

	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, fmt.Errorf("create chat %s: %w", chat.ID, err)
	}
	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}
	var chat domain.Chat
	err := r.db.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error
	return r.handleFindError(err, &chat)
}

func (r *gormChatRepository) List(ctx context.Context, filter domain.ChatFilter, limit int) ([]domain.Chat, error) {
	q := r.db.WithContext(ctx).Model(&domain.Chat{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Persona != "" {
		q = q.Where("persona = ?", filter.Persona)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var chats []domain.Chat
	if err := q.Order("updated_at DESC").Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

func (r *gormChatRepository) ListAll(ctx context.Context, ownerID string) ([]domain.Chat, error) {
	return r.List(ctx, domain.ChatFilter{OwnerID: ownerID}, 0)
}

func (r *gormChatRepository) UpdateTitle(ctx context.Context, chatID, title string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		UpdateColumn("title", title)
	if res.Error != nil {
		return fmt.Errorf("update title of chat %s: %w", chatID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) RecordMessage(ctx context.Context, chatID, preview string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		UpdateColumns(map[string]interface{}{
			"message_count": gorm.Expr("message_count + ?", 1),
			"last_message":  preview,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("record message on chat %s: %w", chatID, res.Error)
	}
	return nil
}

func (r *gormChatRepository) SaveLearningContext(ctx context.Context, chatID string, lc *domain.LearningContext) error {
	if lc != nil {
		lc = lc.Clone()
		lc.UpdatedAt = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Select("learning_context").
		UpdateColumns(&domain.Chat{LearningContext: lc})
	if res.Error != nil {
		return fmt.Errorf("save learning context of chat %s: %w", chatID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) Delete(ctx context.Context, chatID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", chatID).Delete(&domain.Chat{}).Error; err != nil {
		return fmt.Errorf("delete chat %s: %w", chatID, err)
	}
	return nil
}

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}
	if strings.TrimSpace(chat.OwnerID) == "" {
		return errors.New("owner ID is required")
	}
	if strings.TrimSpace(chat.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	return nil, fmt.Errorf("find chat: %w", err)
}
