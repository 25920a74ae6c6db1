package tutor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/services"
)

type ownerKey struct{}

func contextIdentity(ctx context.Context) (string, error) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	if !ok {
		return "", errors.New("no identity")
	}
	return owner, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.IdleTimeout = time.Minute
	r, err := NewRegistry(newTestStore(t), &fakeGenerator{}, IdentityFunc(contextIdentity), cfg, &services.NoOpLogger{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestRegistrySessionPerOwnerAndPersona(t *testing.T) {
	r := newTestRegistry(t)
	alice := context.WithValue(context.Background(), ownerKey{}, "alice")
	bob := context.WithValue(context.Background(), ownerKey{}, "bob")

	a1, err := r.Session(alice, domain.PersonaSocratic)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	a2, _ := r.Session(alice, domain.PersonaSocratic)
	if a1 != a2 {
		t.Error("same owner and persona got different controllers")
	}
	if a1.State() != StateReady {
		t.Errorf("session state = %s, want ready", a1.State())
	}

	af, _ := r.Session(alice, domain.PersonaFeynman)
	b, _ := r.Session(bob, domain.PersonaSocratic)
	if af == a1 || b == a1 {
		t.Error("distinct keys share a controller")
	}
	if b.OwnerID() != "bob" {
		t.Errorf("owner = %q, want bob", b.OwnerID())
	}
	if r.Len() != 3 {
		t.Errorf("registry holds %d sessions, want 3", r.Len())
	}

	if _, err := r.Session(alice, "plato"); !IsType(err, ErrTypeValidation) {
		t.Errorf("unknown persona: err = %v", err)
	}
}

func TestRegistryAnonymousFallback(t *testing.T) {
	r := newTestRegistry(t)
	c, err := r.Session(context.Background(), domain.PersonaFeynman)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if c.OwnerID() != domain.AnonymousOwner {
		t.Errorf("owner = %q, want %q", c.OwnerID(), domain.AnonymousOwner)
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.WithValue(context.Background(), ownerKey{}, "alice")
	c, _ := r.Session(ctx, domain.PersonaFeynman)
	c.Submit(ctx, "hello", "")

	if n := r.evictIdle(time.Now()); n != 0 {
		t.Fatalf("evicted %d fresh sessions", n)
	}
	if n := r.evictIdle(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if r.Len() != 0 {
		t.Errorf("registry still holds %d sessions", r.Len())
	}

	again, _ := r.Session(ctx, domain.PersonaFeynman)
	if again == c {
		t.Error("evicted controller was reused")
	}
	if len(again.Snapshot().Messages) != 2 {
		t.Errorf("remounted session lost history: %d messages", len(again.Snapshot().Messages))
	}
}

func TestRegistrySessionRefreshesIdleClock(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.WithValue(context.Background(), ownerKey{}, "alice")
	c, _ := r.Session(ctx, domain.PersonaSocratic)

	c.mu.Lock()
	c.lastActive = time.Now().Add(-time.Hour)
	c.mu.Unlock()

	again, err := r.Session(ctx, domain.PersonaSocratic)
	if err != nil || again != c {
		t.Fatalf("session = %p, %v; want the existing controller", again, err)
	}
	if n := r.evictIdle(time.Now()); n != 0 {
		t.Fatalf("evicted %d sessions right after they were handed out", n)
	}
	if _, err := c.Submit(ctx, "still here", ""); err != nil {
		t.Errorf("submit on handed-out session: %v", err)
	}
}

func TestRegistryInvalidate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.WithValue(context.Background(), ownerKey{}, "alice")
	c, _ := r.Session(ctx, domain.PersonaSocratic)
	chatID := c.ActiveChatID()

	r.Invalidate(ctx, "bob", chatID)
	if c.ActiveChatID() != chatID {
		t.Fatal("invalidating another owner's chat touched this session")
	}

	r.store.(interface {
		DeleteConversation(context.Context, string) error
	}).DeleteConversation(ctx, chatID)
	r.Invalidate(ctx, "alice", chatID)
	if c.ActiveChatID() == chatID {
		t.Error("session still points at the deleted chat")
	}
}

func TestTutorConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.IdleTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero idle timeout accepted")
	}
}
