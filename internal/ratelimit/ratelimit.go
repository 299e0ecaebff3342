// Package ratelimit throttles the public endpoints that are cheap to abuse:
// promo code guessing and quote email requests.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows at most Max events per Window. A zero rule disables limiting.
type Rule struct {
	Window time.Duration
	Max    int
}

func (r Rule) disabled() bool { return r.Max <= 0 || r.Window <= 0 }

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// RetryAfter is the wait until the window frees up, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.Reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + time.Second
}

// Allower consumes one event for key under rule.
type Allower interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}

func open(rule Rule, now time.Time) Decision {
	return Decision{Allowed: true, Remaining: rule.Max, Reset: now.Add(rule.Window)}
}
