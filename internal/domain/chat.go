// File: internal/domain/chat.go
package domain

import "time"

const (
	// DefaultChatTitle is used until the first user message names the chat.
	DefaultChatTitle = "New Learning Session"
	// AnonymousOwner owns chats created without any resolvable identity.
	AnonymousOwner = "anonymous"
)

// Chat represents a single conversation thread. LastMessage and MessageCount
// are denormalized from the chat's messages.
type Chat struct {
	ID              string           `json:"id" gorm:"primaryKey;size:64" firestore:"-"`
	Title           string           `json:"title" gorm:"not null" firestore:"title"`
	OwnerID         string           `json:"userId" gorm:"index;size:128;not null" firestore:"userId"`
	Persona         Persona          `json:"persona" gorm:"index;size:32" firestore:"persona"`
	LastMessage     string           `json:"lastMessage,omitempty" firestore:"lastMessage,omitempty"`
	MessageCount    int              `json:"messageCount" gorm:"not null;default:0" firestore:"messageCount"`
	LearningContext *LearningContext `json:"learningContext,omitempty" gorm:"serializer:json" firestore:"learningContext,omitempty"`
	CreatedAt       time.Time        `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time        `json:"timestamp" gorm:"index" firestore:"timestamp"` // last activity
}

// ChatFilter narrows chat listings. Empty fields match everything.
type ChatFilter struct {
	OwnerID string
	Persona Persona
}

// TopicCount is one entry of the popular-topics ranking.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// ChatStats summarizes an owner's (or everyone's) chats.
type ChatStats struct {
	TotalChats    int          `json:"totalChats"`
	TotalMessages int          `json:"totalMessages"`
	PopularTopics []TopicCount `json:"popularTopics"`
}
