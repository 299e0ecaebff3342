// Package lock serialises read-modify-write cycles on one Redis key across API
// replicas, so two browser tabs editing the same quote session cannot lose
// each other's changes.
package lock

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotConfigured is returned when the locker has no Redis client.
	ErrNotConfigured = errors.New("lock: redis client not configured")
	// ErrBusy is returned when the lock stayed taken for longer than Wait.
	ErrBusy = errors.New("lock: resource busy")
)

// Deleting only our own token keeps a holder whose lease expired from
// releasing the next holder's lock.
var release = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker hands out leases on keys under Prefix.
type Locker struct {
	R      redis.Cmdable
	Prefix string
	// Lease bounds how long a crashed holder can block others. Defaults to 5s.
	Lease time.Duration
	// Wait bounds how long to queue for a taken lock. Zero waits for the context.
	Wait time.Duration
	// Poll is the base interval between attempts. Defaults to 20ms.
	Poll time.Duration
}

// Do runs fn while holding the lease on key and releases it afterwards.
func (l Locker) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.R == nil {
		return ErrNotConfigured
	}
	token, err := l.acquire(ctx, l.Prefix+key)
	if err != nil {
		return err
	}
	defer func() {
		_ = release.Run(context.WithoutCancel(ctx), l.R, []string{l.Prefix + key}, token).Err()
	}()
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key string) (string, error) {
	lease := l.Lease
	if lease <= 0 {
		lease = 5 * time.Second
	}
	poll := l.Poll
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	var deadline <-chan time.Time
	if l.Wait > 0 {
		t := time.NewTimer(l.Wait)
		defer t.Stop()
		deadline = t.C
	}

	token := uuid.NewString()
	for {
		ok, err := l.R.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		// Jitter keeps waiters from retrying in lockstep.
		pause := time.NewTimer(poll + rand.N(poll))
		select {
		case <-ctx.Done():
			pause.Stop()
			return "", ctx.Err()
		case <-deadline:
			pause.Stop()
			return "", ErrBusy
		case <-pause.C:
		}
	}
}
