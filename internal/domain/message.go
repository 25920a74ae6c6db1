// File: internal/domain/message.go
package domain

import "time"

// MessageCategory tags assistant replies for display styling.
type MessageCategory string

const (
	CategoryQuestion      MessageCategory = "question"
	CategoryReflection    MessageCategory = "reflection"
	CategoryEncouragement MessageCategory = "encouragement"
	CategoryGuidance      MessageCategory = "guidance"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn within a chat. Messages are immutable once
// written and ordered by Timestamp ascending.
type Message struct {
	Seq       uint            `json:"-" gorm:"primaryKey;autoIncrement" firestore:"-"`
	ID        string          `json:"id" gorm:"size:64;not null;uniqueIndex:idx_chat_message,priority:2" firestore:"id"`
	ChatID    string          `json:"chatId" gorm:"size:64;not null;uniqueIndex:idx_chat_message,priority:1" firestore:"-"`
	Content   string          `json:"content" gorm:"not null" firestore:"content"`
	IsUser    bool            `json:"isUser" firestore:"isUser"`
	Category  MessageCategory `json:"messageType,omitempty" gorm:"size:32" firestore:"messageType,omitempty"`
	Timestamp time.Time       `json:"timestamp" gorm:"index" firestore:"timestamp"`
}

// Role returns "user" or "assistant".
func (m Message) Role() string {
	if m.IsUser {
		return RoleUser
	}
	return RoleAssistant
}
