// File: internal/dtos/chat.go
package dtos

import (
	"time"

	"github.com/iyunix/go-sage/internal/domain"
)

// HTMLRenderer turns message text into display HTML.
type HTMLRenderer interface {
	HTML(src string) string
}

type SubmitRequestDTO struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type MessageDTO struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	HTML        string `json:"html"`
	IsUser      bool   `json:"isUser"`
	Role        string `json:"role"`
	MessageType string `json:"messageType,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type ChatDTO struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	Persona      domain.Persona          `json:"persona"`
	LastMessage  string                  `json:"lastMessage,omitempty"`
	MessageCount int                     `json:"messageCount"`
	CreatedAt    string                  `json:"createdAt"`
	UpdatedAt    string                  `json:"timestamp"`
	Learning     *domain.LearningContext `json:"learningContext,omitempty"`
}

// SessionDTO is a persona controller's state as shown to the browser.
type SessionDTO struct {
	Persona         domain.Persona          `json:"persona"`
	State           string                  `json:"state"`
	Chat            *ChatDTO                `json:"chat,omitempty"`
	Messages        []MessageDTO            `json:"messages"`
	LearningContext *domain.LearningContext `json:"learningContext,omitempty"`
}

func ToMessageDTO(m domain.Message, r HTMLRenderer) MessageDTO {
	dto := MessageDTO{
		ID:          m.ID,
		Content:     m.Content,
		IsUser:      m.IsUser,
		Role:        m.Role(),
		MessageType: string(m.Category),
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if r != nil {
		dto.HTML = r.HTML(m.Content)
	}
	return dto
}

func ToMessageDTOs(msgs []domain.Message, r HTMLRenderer) []MessageDTO {
	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageDTO(m, r))
	}
	return out
}

func ToChatDTO(c *domain.Chat) *ChatDTO {
	if c == nil {
		return nil
	}
	return &ChatDTO{
		ID:           c.ID,
		Title:        c.Title,
		Persona:      c.Persona,
		LastMessage:  c.LastMessage,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.UTC().Format(time.RFC3339),
		Learning:     c.LearningContext,
	}
}

func ToChatDTOs(chats []domain.Chat) []ChatDTO {
	out := make([]ChatDTO, 0, len(chats))
	for i := range chats {
		out = append(out, *ToChatDTO(&chats[i]))
	}
	return out
}
