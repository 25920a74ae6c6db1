// File: cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"gorm.io/gorm"

	"github.com/iyunix/go-sage/internal/config"
	"github.com/iyunix/go-sage/internal/handlers"
	"github.com/iyunix/go-sage/internal/middleware"
	"github.com/iyunix/go-sage/internal/ratelimit"
	"github.com/iyunix/go-sage/internal/render"
	"github.com/iyunix/go-sage/internal/repository"
	chatrepo "github.com/iyunix/go-sage/internal/repository/chat"
	msgrepo "github.com/iyunix/go-sage/internal/repository/message"
	userrepo "github.com/iyunix/go-sage/internal/repository/user"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/account"
	"github.com/iyunix/go-sage/internal/services/ai"
	"github.com/iyunix/go-sage/internal/services/conversation"
	"github.com/iyunix/go-sage/internal/services/tutor"
)

// Application aggregates all services and handlers
type Application struct {
	Config   *config.Config
	Logger   services.Logger
	Store    *conversation.Store
	Registry *tutor.Registry
	Accounts *account.Service
	Handler  http.Handler

	db        *gorm.DB
	firestore *firestore.Client
	limiter   *ratelimit.MemoryRateLimiter
}

// buildApplication wires every dependency from cfg.
func buildApplication(ctx context.Context, cfg *config.Config, logger services.Logger) (*Application, error) {
	app := &Application{Config: cfg, Logger: logger}

	// Accounts always live in SQLite.
	db, err := repository.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	app.db = db

	store, err := app.openConversationStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	generator, err := ai.NewGenerator(ctx, &ai.Config{
		Provider:      cfg.AIProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	tutorCfg := tutor.DefaultConfig()
	tutorCfg.DefaultModel = cfg.DefaultModel
	tutorCfg.IdleTimeout = cfg.SessionIdleTimeout
	registry, err := tutor.NewRegistry(store, generator, tutor.IdentityFunc(middleware.ContextIdentity), tutorCfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Registry = registry

	accounts, err := account.NewService(userrepo.NewGormUserRepository(db), cfg.JWTSecretKey, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Accounts = accounts

	secure := cfg.IsProduction()
	md := render.NewMarkdown()
	proxies, err := ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		app.Close()
		return nil, err
	}
	limitCfg := ratelimit.DefaultAuthConfig()
	limitCfg.TrustedProxies = proxies
	app.limiter = ratelimit.NewMemoryRateLimiter(limitCfg)

	cors := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins)
	app.Handler = cors(handlers.NewRouter(handlers.RouterConfig{
		Auth:        handlers.NewAuthHandler(accounts, secure, logger),
		Tutor:       handlers.NewTutorHandler(registry, md, logger),
		Chats:       handlers.NewChatHandler(store, registry, md, logger),
		Log:         handlers.NewLogHandler(logger),
		Identity:    middleware.NewIdentityMiddleware(accounts, secure, logger),
		AuthLimiter: app.limiter,
		Logger:      logger,
	}))
	return app, nil
}

func (app *Application) openConversationStore(ctx context.Context) (*conversation.Store, error) {
	switch app.Config.StoreBackend {
	case config.BackendFirestore:
		client, err := repository.OpenFirestore(ctx, app.Config.FirestoreProjectID, app.Config.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		app.firestore = client
		app.Logger.Info("conversation store ready", "backend", "firestore", "project", app.Config.FirestoreProjectID)
		return conversation.NewStore(chatrepo.NewFirestoreChatRepository(client), msgrepo.NewFirestoreMessageRepository(client), app.Logger)
	case config.BackendSQLite:
		app.Logger.Info("conversation store ready", "backend", "sqlite", "path", app.Config.SQLitePath)
		return conversation.NewStore(chatrepo.NewGormChatRepository(app.db), msgrepo.NewGormMessageRepository(app.db), app.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", app.Config.StoreBackend)
	}
}

// Close drains sessions and releases storage handles.
func (app *Application) Close() {
	if app.Registry != nil {
		app.Registry.Close()
	}
	if app.limiter != nil {
		app.limiter.Close()
	}
	if app.firestore != nil {
		if err := app.firestore.Close(); err != nil {
			app.Logger.Warn("firestore close failed", "error", err)
		}
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
