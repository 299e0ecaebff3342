package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// Fixed is a fixed-window limiter over any ulule/limiter store. The email
// endpoint runs it on the Redis store; tests use the memory store.
type Fixed struct {
	Store  limiter.Store
	Prefix string
}

// Allow consumes one token for key.
func (f Fixed) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if f.Store == nil || rule.disabled() {
		return open(rule, time.Now()), nil
	}
	lim := limiter.New(f.Store, limiter.Rate{Period: rule.Window, Limit: int64(rule.Max)})
	res, err := lim.Get(ctx, f.Prefix+key)
	if err != nil {
		return Decision{Reset: time.Now().Add(rule.Window)}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Remaining: int(res.Remaining),
		Reset:     time.Unix(res.Reset, 0),
	}, nil
}
