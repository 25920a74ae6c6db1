package tutor

import (
	"context"
	"strings"

	"github.com/iyunix/go-sage/internal/domain"
)

// IdentityResolver supplies the owner identifier of the current caller.
type IdentityResolver interface {
	ResolveOwner(ctx context.Context) (string, error)
}

// IdentityFunc adapts a plain function to IdentityResolver.
type IdentityFunc func(ctx context.Context) (string, error)

func (f IdentityFunc) ResolveOwner(ctx context.Context) (string, error) {
	return f(ctx)
}

// resolveOwner never fails: an unresolvable caller becomes the anonymous owner.
func resolveOwner(ctx context.Context, r IdentityResolver) string {
	if r == nil {
		return domain.AnonymousOwner
	}
	owner, err := r.ResolveOwner(ctx)
	if err != nil || strings.TrimSpace(owner) == "" {
		return domain.AnonymousOwner
	}
	return owner
}
