package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/repository"
	chatrepo "github.com/iyunix/go-sage/internal/repository/chat"
	msgrepo "github.com/iyunix/go-sage/internal/repository/message"
	"github.com/iyunix/go-sage/internal/services"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := repository.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store, err := NewStore(chatrepo.NewGormChatRepository(db), msgrepo.NewGormMessageRepository(db), &services.NoOpLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "I want to learn about recursion", "I want to learn about recursion"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"fifty one", strings.Repeat("b", 51), strings.Repeat("b", 47) + "..."},
		{"multibyte", strings.Repeat("é", 60), strings.Repeat("é", 47) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateTitle(tt.in)
			if got != tt.want {
				t.Fatalf("GenerateTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if n := len([]rune(got)); n > MaxTitleLength {
				t.Fatalf("title has %d runes, max %d", n, MaxTitleLength)
			}
		})
	}
}

func TestCreateConversationDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateConversation(ctx, "", domain.PersonaSocratic)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	chat := s.GetConversation(ctx, id)
	if chat == nil {
		t.Fatal("created conversation not found")
	}
	if chat.Title != domain.DefaultChatTitle {
		t.Errorf("title = %q, want %q", chat.Title, domain.DefaultChatTitle)
	}
	if chat.OwnerID != domain.AnonymousOwner {
		t.Errorf("owner = %q, want %q", chat.OwnerID, domain.AnonymousOwner)
	}
	if chat.MessageCount != 0 {
		t.Errorf("message count = %d, want 0", chat.MessageCount)
	}
}

func TestAppendMessageOrderAndSummary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "owner-1", domain.PersonaFeynman)

	long := strings.Repeat("x", 150)
	for i, content := range []string{"first", "second", long} {
		msg := &domain.Message{ID: uuid.NewString(), Content: content, IsUser: i%2 == 0}
		if err := s.AppendMessage(ctx, id, msg); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		msgs := s.ListMessages(ctx, id)
		if len(msgs) != i+1 {
			t.Fatalf("after append %d: got %d messages", i, len(msgs))
		}
		if last := msgs[len(msgs)-1]; last.ID != msg.ID {
			t.Fatalf("last message = %s, want %s", last.ID, msg.ID)
		}
	}

	chat := s.GetConversation(ctx, id)
	if chat.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", chat.MessageCount)
	}
	if chat.LastMessage != long[:PreviewLength] {
		t.Errorf("preview has length %d, want %d", len(chat.LastMessage), PreviewLength)
	}
}

func TestAppendMessageSameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "owner-1", domain.PersonaSocratic)

	msg := &domain.Message{ID: "m-1", Content: "draft", IsUser: true}
	if err := s.AppendMessage(ctx, id, msg); err != nil {
		t.Fatalf("first append: %v", err)
	}
	msg2 := &domain.Message{ID: "m-1", Content: "final", IsUser: true}
	if err := s.AppendMessage(ctx, id, msg2); err != nil {
		t.Fatalf("second append: %v", err)
	}

	msgs := s.ListMessages(ctx, id)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Content != "final" {
		t.Errorf("content = %q, want %q", msgs[0].Content, "final")
	}
}

func TestAppendMessageToMissingChat(t *testing.T) {
	s := newTestStore(t)
	// The message lands and the summary update is skipped for a missing chat.
	err := s.AppendMessage(context.Background(), "missing", &domain.Message{ID: "m-1", Content: "hi", IsUser: true})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "owner-1", domain.PersonaSocratic)
	for i := 0; i < 3; i++ {
		if err := s.AppendMessage(ctx, id, &domain.Message{ID: uuid.NewString(), Content: "m", IsUser: true}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := s.DeleteConversation(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if chat := s.GetConversation(ctx, id); chat != nil {
		t.Error("conversation still present after delete")
	}
	if msgs := s.ListMessages(ctx, id); len(msgs) != 0 {
		t.Errorf("got %d messages after delete, want 0", len(msgs))
	}
}

func TestListConversationsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)
	newer, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)
	s.CreateConversation(ctx, "alice", domain.PersonaFeynman)
	s.CreateConversation(ctx, "bob", domain.PersonaSocratic)

	time.Sleep(5 * time.Millisecond)
	// Activity on the older chat moves it to the front.
	if err := s.AppendMessage(ctx, older, &domain.Message{ID: "m", Content: "hi", IsUser: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	chats := s.ListConversations(ctx, domain.ChatFilter{OwnerID: "alice", Persona: domain.PersonaSocratic})
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != older || chats[1].ID != newer {
		t.Errorf("order = [%s %s], want [%s %s]", chats[0].ID, chats[1].ID, older, newer)
	}

	if all := s.ListConversations(ctx, domain.ChatFilter{}); len(all) != 4 {
		t.Errorf("unfiltered listing has %d chats, want 4", len(all))
	}
}

func TestListConversationsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < ListLimit+5; i++ {
		if _, err := s.CreateConversation(ctx, "alice", domain.PersonaFeynman); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if chats := s.ListConversations(ctx, domain.ChatFilter{OwnerID: "alice"}); len(chats) != ListLimit {
		t.Errorf("got %d chats, want %d", len(chats), ListLimit)
	}
}

func TestLearningContextOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)

	if lc := s.GetLearningContext(ctx, id); lc != nil {
		t.Fatalf("new chat has learning context %+v", lc)
	}

	first := &domain.LearningContext{Topic: "Python", UserLevel: domain.LevelAdvanced, PreviousQuestions: []string{"a", "b"}}
	if err := s.SaveLearningContext(ctx, id, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &domain.LearningContext{Topic: "React", UserLevel: domain.LevelBeginner}
	if err := s.SaveLearningContext(ctx, id, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.GetLearningContext(ctx, id)
	if got == nil {
		t.Fatal("learning context missing")
	}
	if got.Topic != "React" || got.UserLevel != domain.LevelBeginner {
		t.Errorf("got %+v, want topic React, level beginner", got)
	}
	if len(got.PreviousQuestions) != 0 {
		t.Errorf("previous questions = %v, want none after overwrite", got.PreviousQuestions)
	}

	if err := s.SaveLearningContext(ctx, "missing", second); err == nil {
		t.Error("saving onto a missing chat should fail")
	}
}

func TestUpdateTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)

	if err := s.UpdateTitle(ctx, id, "Recursion"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if chat := s.GetConversation(ctx, id); chat.Title != "Recursion" {
		t.Errorf("title = %q, want Recursion", chat.Title)
	}
	if err := s.UpdateTitle(ctx, "missing", "x"); err == nil {
		t.Error("updating a missing chat should fail")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	topics := []string{"Python", "Python", "React", "Algorithms", "Database Design", "JavaScript", "Python", "React"}
	for _, topic := range topics {
		id, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)
		s.AppendMessage(ctx, id, &domain.Message{ID: uuid.NewString(), Content: "q", IsUser: true})
		s.SaveLearningContext(ctx, id, &domain.LearningContext{Topic: topic, UserLevel: domain.LevelBeginner})
	}
	s.CreateConversation(ctx, "bob", domain.PersonaFeynman)

	stats := s.Stats(ctx, "alice")
	if stats.TotalChats != len(topics) {
		t.Errorf("total chats = %d, want %d", stats.TotalChats, len(topics))
	}
	if stats.TotalMessages != len(topics) {
		t.Errorf("total messages = %d, want %d", stats.TotalMessages, len(topics))
	}
	if len(stats.PopularTopics) != PopularTopicsLimit {
		t.Fatalf("got %d topics, want %d", len(stats.PopularTopics), PopularTopicsLimit)
	}
	if top := stats.PopularTopics[0]; top.Topic != "Python" || top.Count != 3 {
		t.Errorf("top topic = %+v, want Python x3", top)
	}

	if all := s.Stats(ctx, ""); all.TotalChats != len(topics)+1 {
		t.Errorf("global total chats = %d, want %d", all.TotalChats, len(topics)+1)
	}
}

func TestSubscribeMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestStore(t)
	id, _ := s.CreateConversation(ctx, "alice", domain.PersonaSocratic)

	updates := make(chan []domain.Message, 16)
	unsubscribe := s.SubscribeMessages(ctx, id, func(msgs []domain.Message) {
		updates <- msgs
	})
	defer unsubscribe()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case msgs := <-updates:
				if len(msgs) == n {
					return
				}
			case <-deadline:
				t.Fatalf("no update with %d messages", n)
			}
		}
	}

	waitFor(0)
	s.AppendMessage(ctx, id, &domain.Message{ID: "a", Content: "one", IsUser: true})
	waitFor(1)
	s.AppendMessage(ctx, id, &domain.Message{ID: "b", Content: "two"})
	waitFor(2)

	unsubscribe()
	unsubscribe()
}

func TestNewStoreRequiresRepositories(t *testing.T) {
	if _, err := NewStore(nil, nil, nil); err == nil {
		t.Error("expected error for nil repositories")
	}
}
