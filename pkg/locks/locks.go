package locks

import (
	"context"
	"errors"
	"time"
)

const (
	defaultTTL   = 30 * time.Second
	defaultWait  = 5 * time.Second
	retryBackoff = 25 * time.Millisecond
)

// ErrNotAcquired is returned when the lock could not be taken before the wait
// deadline elapsed.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Options tunes lock lifetime and acquisition wait.
type Options struct {
	TTL  time.Duration
	Wait time.Duration
}

func (o Options) normalize() Options {
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
	if o.Wait <= 0 {
		o.Wait = defaultWait
	}
	return o
}
