package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
)

// RedisLocker implements Locker with an owner-tagged SET NX key so the
// critical section holds across API instances. The TTL bounds how long a
// crashed holder can block others.
type RedisLocker struct {
	store pkgredis.LockStore
	opts  Options
}

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(store pkgredis.LockStore, opts Options) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	return &RedisLocker{store: store, opts: opts.normalize()}, nil
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return errors.New("lock key is required")
	}
	owner := uuid.NewString()
	if err := l.acquire(ctx, key, owner); err != nil {
		return err
	}
	defer func() {
		// release even when the request context is already cancelled
		_, _ = l.store.ReleaseLock(context.WithoutCancel(ctx), key, owner)
	}()

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, owner string) error {
	deadline := time.Now().Add(l.opts.Wait)
	ticker := time.NewTicker(retryBackoff)
	defer ticker.Stop()
	for {
		ok, err := l.store.AcquireLock(ctx, key, owner, l.opts.TTL)
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
