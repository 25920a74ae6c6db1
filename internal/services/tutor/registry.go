// File: internal/services/tutor/registry.go
package tutor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/ai"
)

type Config struct {
	DefaultModel    string
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	WriteTimeout    time.Duration
}

func (c *Config) Validate() error {
	if c.DefaultModel == "" {
		return fmt.Errorf("default_model is required")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		DefaultModel:    ai.DefaultModel,
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: time.Minute,
		WriteTimeout:    30 * time.Second,
	}
}

type sessionKey struct {
	owner   string
	persona domain.Persona
}

// Registry keeps one mounted Controller per (owner, persona) and evicts the
// ones left idle past Config.IdleTimeout.
type Registry struct {
	store     ConversationStore
	generator ai.Generator
	identity  IdentityResolver
	config    *Config
	logger    services.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Controller

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(store ConversationStore, generator ai.Generator, identity IdentityResolver, config *Config, logger services.Logger) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("conversation store cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tutor config: %w", err)
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}

	r := &Registry{
		store:     store,
		generator: generator,
		identity:  identity,
		config:    config,
		logger:    logger,
		sessions:  make(map[sessionKey]*Controller),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go r.cleanupLoop()
	return r, nil
}

// Owner resolves the caller's owner identifier, falling back to the
// anonymous owner.
func (r *Registry) Owner(ctx context.Context) string {
	return resolveOwner(ctx, r.identity)
}

// Session returns the caller's mounted controller for persona, creating and
// mounting it on first use.
func (r *Registry) Session(ctx context.Context, persona domain.Persona) (*Controller, error) {
	p, ok := LookupPersona(persona)
	if !ok {
		return nil, NewValidationError("session", fmt.Sprintf("unknown persona %q", persona))
	}
	owner := r.Owner(ctx)
	key := sessionKey{owner: owner, persona: persona}

	r.mu.Lock()
	c, ok := r.sessions[key]
	if !ok {
		c = NewController(p, owner, r.store, r.generator, ControllerConfig{
			DefaultModel: r.config.DefaultModel,
			WriteTimeout: r.config.WriteTimeout,
		}, r.logger)
		r.sessions[key] = c
	}
	// Touched under r.mu so evictIdle cannot close c before it is mounted.
	c.touch()
	r.mu.Unlock()

	if err := c.Mount(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Invalidate tells every session of ownerID that chatID is gone.
func (r *Registry) Invalidate(ctx context.Context, ownerID, chatID string) {
	r.mu.Lock()
	var affected []*Controller
	for key, c := range r.sessions {
		if key.owner == ownerID {
			affected = append(affected, c)
		}
	}
	r.mu.Unlock()

	for _, c := range affected {
		if err := c.Invalidate(ctx, chatID); err != nil {
			r.logger.Warn("failed to reset session after chat removal", "owner_id", ownerID, "chat_id", chatID, "error", err)
		}
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) cleanupLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.evictIdle(time.Now()); n > 0 {
				r.logger.Debug("evicted idle tutor sessions", "count", n)
			}
		case <-r.stop:
			return
		}
	}
}

// evictIdle closes sessions idle since before now minus IdleTimeout. Sessions
// awaiting a reply are kept.
func (r *Registry) evictIdle(now time.Time) int {
	cutoff := now.Add(-r.config.IdleTimeout)

	r.mu.Lock()
	var evicted []*Controller
	for key, c := range r.sessions {
		last, busy := c.idleSince()
		if busy || last.After(cutoff) {
			continue
		}
		delete(r.sessions, key)
		evicted = append(evicted, c)
	}
	r.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}
	return len(evicted)
}

// Close stops the cleanup loop and drains every session's pending writes.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done

		r.mu.Lock()
		sessions := r.sessions
		r.sessions = make(map[sessionKey]*Controller)
		r.mu.Unlock()

		for _, c := range sessions {
			c.Close()
		}
		r.logger.Info("tutor registry closed", "sessions", len(sessions))
	})
}
