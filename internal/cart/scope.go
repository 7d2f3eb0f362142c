package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type scopeKey struct{}

// scope memoizes resolved carts for the lifetime of one request. It lives in
// the request context and is never shared between requests.
type scope struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

// WithScope returns a context carrying a fresh cart memo. Without it every
// Resolve goes to the database.
func WithScope(ctx context.Context) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{carts: map[string]*models.Cart{}})
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

func (s *scope) get(key string) *models.Cart {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[key]
}

func (s *scope) put(key string, cart *models.Cart) {
	if s == nil || cart == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = cart
}

func (s *scope) drop(keys ...string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.carts, key)
	}
}

// Invalidate forgets any memoized cart for the identities in this request.
// Call it after every committed write.
func Invalidate(ctx context.Context, ids ...Identity) {
	s := scopeFrom(ctx)
	for _, id := range ids {
		s.drop(id.Key())
	}
}
