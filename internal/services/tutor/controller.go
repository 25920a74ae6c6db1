// File: internal/services/tutor/controller.go
package tutor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/ai"
	"github.com/iyunix/go-sage/internal/services/conversation"
)

// ConversationStore is the part of conversation.Store a controller needs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, ownerID string, persona domain.Persona) (string, error)
	ListConversations(ctx context.Context, filter domain.ChatFilter) []domain.Chat
	GetConversation(ctx context.Context, chatID string) *domain.Chat
	AppendMessage(ctx context.Context, chatID string, msg *domain.Message) error
	ListMessages(ctx context.Context, chatID string) []domain.Message
	SaveLearningContext(ctx context.Context, chatID string, lc *domain.LearningContext) error
	UpdateTitle(ctx context.Context, chatID, title string) error
	DeleteConversation(ctx context.Context, chatID string) error
}

type State int

const (
	StateUninitialized State = iota
	StateLoadingHistory
	StateReady
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadingHistory:
		return "loading_history"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of a controller's state at one moment.
type Snapshot struct {
	Persona         domain.Persona
	OwnerID         string
	State           State
	Chat            *domain.Chat
	Messages        []domain.Message
	LearningContext *domain.LearningContext
}

// Controller holds the live state of one owner's session with one persona.
// Local state changes first; persistence follows on a background writer in
// the same order.
type Controller struct {
	persona      Persona
	ownerID      string
	store        ConversationStore
	generator    ai.Generator
	defaultModel string
	logger       services.Logger
	writer       *writer

	mountMu sync.Mutex

	mu         sync.Mutex
	state      State
	chat       *domain.Chat
	messages   []domain.Message
	learning   *domain.LearningContext
	lastActive time.Time
	// staleChatID is the active chat deleted while a reply was pending.
	staleChatID string
}

type ControllerConfig struct {
	DefaultModel string
	WriteTimeout time.Duration
}

func NewController(persona Persona, ownerID string, store ConversationStore, generator ai.Generator, cfg ControllerConfig, logger services.Logger) *Controller {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ai.DefaultModel
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if strings.TrimSpace(ownerID) == "" {
		ownerID = domain.AnonymousOwner
	}
	return &Controller{
		persona:      persona,
		ownerID:      ownerID,
		store:        store,
		generator:    generator,
		defaultModel: cfg.DefaultModel,
		logger:       logger,
		writer:       newWriter(cfg.WriteTimeout, logger),
		lastActive:   time.Now(),
	}
}

func (c *Controller) OwnerID() string { return c.ownerID }

func (c *Controller) Persona() domain.Persona { return c.persona.Name }

// Mount opens the owner's most recent conversation for this persona, or a new
// one when there is none. Mounting an already mounted controller is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	c.mountMu.Lock()
	defer c.mountMu.Unlock()

	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoadingHistory
	c.mu.Unlock()

	if err := c.openLatest(ctx); err != nil {
		c.setState(StateUninitialized)
		return err
	}
	c.logger.Info("tutor session mounted", "persona", c.persona.Name, "owner_id", c.ownerID, "chat_id", c.ActiveChatID())
	return nil
}

func (c *Controller) openLatest(ctx context.Context) error {
	chats := c.store.ListConversations(ctx, domain.ChatFilter{OwnerID: c.ownerID, Persona: c.persona.Name})
	if len(chats) > 0 {
		c.load(ctx, &chats[0])
		return nil
	}
	return c.openNew(ctx)
}

func (c *Controller) openNew(ctx context.Context) error {
	chatID, err := c.store.CreateConversation(ctx, c.ownerID, c.persona.Name)
	if err != nil {
		return NewStoreError("create_conversation", "", err)
	}
	now := time.Now().UTC()
	c.replace(&domain.Chat{
		ID:        chatID,
		Title:     domain.DefaultChatTitle,
		OwnerID:   c.ownerID,
		Persona:   c.persona.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}, []domain.Message{}, nil)
	return nil
}

// load replaces local state with chat's persisted messages and context.
func (c *Controller) load(ctx context.Context, chat *domain.Chat) {
	msgs := c.store.ListMessages(ctx, chat.ID)
	var lc *domain.LearningContext
	if c.persona.TracksLearning {
		lc = chat.LearningContext.Clone()
	}
	c.replace(chat, msgs, lc)
}

func (c *Controller) replace(chat *domain.Chat, msgs []domain.Message, lc *domain.LearningContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chatCopy := *chat
	chatCopy.LearningContext = nil
	c.chat = &chatCopy
	c.messages = msgs
	c.learning = lc
	c.state = StateReady
	c.lastActive = time.Now()
}

// begin moves a Ready controller into LoadingHistory for op.
func (c *Controller) begin(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	if c.state != StateReady {
		return NewStateError(op, c.state)
	}
	c.state = StateLoadingHistory
	return nil
}

// SwitchConversation drops the local state and loads chatID in its place.
// Chats of other owners or personas are reported as not found.
func (c *Controller) SwitchConversation(ctx context.Context, chatID string) error {
	if err := c.begin("switch_conversation"); err != nil {
		return err
	}
	if err := c.writer.flush(ctx); err != nil {
		c.setState(StateReady)
		return err
	}

	chat := c.store.GetConversation(ctx, chatID)
	if chat == nil || chat.OwnerID != c.ownerID || chat.Persona != c.persona.Name {
		c.setState(StateReady)
		return NewNotFoundError("switch_conversation", chatID)
	}
	c.load(ctx, chat)
	return nil
}

// NewConversation starts an empty conversation and makes it active.
func (c *Controller) NewConversation(ctx context.Context) error {
	if err := c.begin("new_conversation"); err != nil {
		return err
	}
	if err := c.openNew(ctx); err != nil {
		c.setState(StateReady)
		return err
	}
	return nil
}

// Invalidate reopens the latest conversation when chatID is the active one,
// typically after it was deleted elsewhere. While a reply is pending the
// reopen is deferred until Submit finishes.
func (c *Controller) Invalidate(ctx context.Context, chatID string) error {
	c.mu.Lock()
	active := c.chat != nil && c.chat.ID == chatID
	if active && c.state == StateAwaitingResponse {
		c.staleChatID = chatID
		c.mu.Unlock()
		c.logger.Debug("invalidation deferred", "persona", c.persona.Name, "chat_id", chatID)
		return nil
	}
	c.mu.Unlock()
	if !active {
		return nil
	}
	if err := c.begin("invalidate"); err != nil {
		return err
	}
	if err := c.openLatest(ctx); err != nil {
		c.setState(StateReady)
		return err
	}
	return nil
}

// reopenAfterDelete drops a reply whose chat was deleted mid-flight, removes
// anything queued for that chat and opens the latest remaining conversation.
// Callers hold c.mu; it is released before the store is read.
func (c *Controller) reopenAfterDelete(ctx context.Context, chatID string) (Snapshot, error) {
	c.staleChatID = ""
	c.state = StateLoadingHistory
	c.writer.enqueue("delete_conversation", chatID, func(ctx context.Context) error {
		return c.store.DeleteConversation(ctx, chatID)
	})
	c.mu.Unlock()

	if err := c.writer.flush(ctx); err != nil {
		c.logger.Warn("flush before reopen failed", "chat_id", chatID, "error", err)
	}
	if err := c.openLatest(ctx); err != nil {
		c.mu.Lock()
		c.chat, c.messages, c.learning = nil, nil, nil
		c.state = StateUninitialized
		c.mu.Unlock()
		return Snapshot{}, err
	}
	c.logger.Info("active chat deleted during reply, reopened latest", "persona", c.persona.Name, "deleted_chat_id", chatID, "chat_id", c.ActiveChatID())
	return c.Snapshot(), nil
}

// Submit records text as the user's turn, asks the generator for a reply and
// records that too. A failed generation call yields the persona's fallback
// reply, not an error. Only one submission may be in flight.
func (c *Controller) Submit(ctx context.Context, text, model string) (Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return Snapshot{}, NewValidationError("submit", "message text is required")
	}
	if model == "" {
		model = c.defaultModel
	}

	c.mu.Lock()
	c.lastActive = time.Now()
	if c.state != StateReady {
		err := NewStateError("submit", c.state)
		c.mu.Unlock()
		return Snapshot{}, err
	}

	chatID := c.chat.ID
	history := append([]domain.Message(nil), c.messages...)
	learning := c.learning.Clone()
	first := len(c.messages) == 0

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Content:   text,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	}
	c.messages = append(c.messages, userMsg)
	c.persist(chatID, userMsg)

	if first {
		title := conversation.GenerateTitle(strings.TrimSpace(text))
		c.chat.Title = title
		c.writer.enqueue("update_title", chatID, func(ctx context.Context) error {
			return c.store.UpdateTitle(ctx, chatID, title)
		})
	}

	c.state = StateAwaitingResponse
	c.mu.Unlock()

	prompt := c.persona.BuildPrompt(history, text, learning)
	reply, category := c.generate(context.WithoutCancel(ctx), model, prompt)

	c.mu.Lock()
	if c.staleChatID == chatID {
		return c.reopenAfterDelete(context.WithoutCancel(ctx), chatID)
	}
	defer c.mu.Unlock()

	replyMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Content:   reply,
		IsUser:    false,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
	c.messages = append(c.messages, replyMsg)
	c.persist(chatID, replyMsg)

	if c.persona.TracksLearning {
		c.learning = UpdateLearningContext(c.learning, text)
		lc := c.learning.Clone()
		c.writer.enqueue("save_learning_context", chatID, func(ctx context.Context) error {
			return c.store.SaveLearningContext(ctx, chatID, lc)
		})
	}

	c.state = StateReady
	c.lastActive = time.Now()
	return c.snapshotLocked(), nil
}

// generate makes a single generation attempt and always produces a reply.
func (c *Controller) generate(ctx context.Context, model, prompt string) (string, domain.MessageCategory) {
	if c.generator == nil {
		return c.persona.FallbackText, ClassifyReply(c.persona.FallbackText)
	}

	start := time.Now()
	reply, err := c.generator.GenerateContent(ctx, model, prompt)
	switch {
	case errors.Is(err, ai.ErrEmptyResponse) || (err == nil && strings.TrimSpace(reply) == ""):
		c.logger.Warn("empty generation reply", "persona", c.persona.Name, "model", model)
		reply = c.persona.EmptyReplyText
	case err != nil:
		c.logger.Error("generation failed", "persona", c.persona.Name, "model", model, "error", err)
		reply = c.persona.FallbackText
	default:
		c.logger.Debug("generation completed", "persona", c.persona.Name, "model", model, "duration", time.Since(start))
	}
	return reply, ClassifyReply(reply)
}

// persist queues msg for storage. Callers hold c.mu so the queue order
// matches the local order.
func (c *Controller) persist(chatID string, msg domain.Message) {
	c.writer.enqueue("append_message", chatID, func(ctx context.Context) error {
		return c.store.AppendMessage(ctx, chatID, &msg)
	})
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveChatID is empty until the controller is mounted.
func (c *Controller) ActiveChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat == nil {
		return ""
	}
	return c.chat.ID
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Persona:         c.persona.Name,
		OwnerID:         c.ownerID,
		State:           c.state,
		Messages:        append([]domain.Message{}, c.messages...),
		LearningContext: c.learning.Clone(),
	}
	if c.chat != nil {
		chat := *c.chat
		snap.Chat = &chat
	}
	return snap
}

// idleSince reports when the controller was last used and whether it is
// waiting on a reply.
func (c *Controller) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive, c.state == StateAwaitingResponse
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Flush waits for every queued write to land.
func (c *Controller) Flush(ctx context.Context) error {
	return c.writer.flush(ctx)
}

// Close drains pending writes and stops the background writer.
func (c *Controller) Close() {
	c.writer.close()
}
