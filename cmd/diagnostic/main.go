// File: cmd/diagnostic/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iyunix/go-sage/internal/config"
	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/repository"
	chatrepo "github.com/iyunix/go-sage/internal/repository/chat"
	msgrepo "github.com/iyunix/go-sage/internal/repository/message"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/ai"
	"github.com/iyunix/go-sage/internal/services/conversation"
)

// Checks that the configured generator answers and the conversation store
// can be read, then exits non-zero if either fails.
func main() {
	prompt := flag.String("prompt", "Reply with the single word: ready", "prompt sent to the generator")
	owner := flag.String("owner", domain.AnonymousOwner, "owner whose chats are listed")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := services.NewLogger("sage-diagnostic", cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := false
	if err := checkGenerator(ctx, cfg, *prompt); err != nil {
		logger.Error("generator check failed", "provider", cfg.AIProvider, "error", err)
		failed = true
	}
	if err := checkStore(ctx, cfg, *owner, logger); err != nil {
		logger.Error("store check failed", "backend", cfg.StoreBackend, "error", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
	fmt.Println("all checks passed")
}

func checkGenerator(ctx context.Context, cfg *config.Config, prompt string) error {
	gen, err := ai.NewGenerator(ctx, &ai.Config{
		Provider:      cfg.AIProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	reply, err := gen.GenerateContent(ctx, cfg.DefaultModel, prompt)
	if err != nil {
		return err
	}
	fmt.Printf("generator %s/%s answered in %s: %q\n", cfg.AIProvider, cfg.DefaultModel, time.Since(start).Round(time.Millisecond), reply)
	return nil
}

func checkStore(ctx context.Context, cfg *config.Config, owner string, logger services.Logger) error {
	var (
		chats    chatrepo.ChatRepository
		messages msgrepo.MessageRepository
	)
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := repository.OpenFirestore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return err
		}
		defer client.Close()
		chats, messages = chatrepo.NewFirestoreChatRepository(client), msgrepo.NewFirestoreMessageRepository(client)
	default:
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		chats, messages = chatrepo.NewGormChatRepository(db), msgrepo.NewGormMessageRepository(db)
	}

	// The store swallows read errors, so check the repository directly first.
	if _, err := chats.List(ctx, domain.ChatFilter{OwnerID: owner}, 1); err != nil {
		return err
	}
	store, err := conversation.NewStore(chats, messages, logger)
	if err != nil {
		return err
	}
	list := store.ListConversations(ctx, domain.ChatFilter{OwnerID: owner})
	fmt.Printf("store %s: %d chats for %s\n", cfg.StoreBackend, len(list), owner)
	for _, c := range list {
		fmt.Printf("  %s  %-10s  %3d msgs  %s\n", c.UpdatedAt.Format(time.RFC3339), c.Persona, c.MessageCount, c.Title)
	}
	return nil
}
