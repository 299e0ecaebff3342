package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/obs"
)

// Guard is HTTP middleware applying one rule to one named bucket.
type Guard struct {
	// Bucket names the limit in keys, metrics and error details.
	Bucket  string
	Limiter Allower
	Rule    Rule
	// Key identifies the caller; nil keys on the client IP.
	Key func(*http.Request) string
	// OnError observes limiter failures. The request is let through either way.
	OnError func(error)
}

// Middleware rejects over-quota requests with 429 and RATE_LIMITED.
func (g Guard) Middleware(next http.Handler) http.Handler {
	if g.Limiter == nil || g.Rule.disabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := g.Limiter.Allow(r.Context(), g.key(r), g.Rule)
		if err != nil {
			if g.OnError != nil {
				g.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(g.Rule.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := int(d.RetryAfter(time.Now()) / time.Second)
		h.Set("Retry-After", strconv.Itoa(wait))
		obs.Inc(obs.RateLimitedTotal, g.Bucket)
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later", map[string]any{
			"bucket":            g.Bucket,
			"retryAfterSeconds": wait,
		})
	})
}

func (g Guard) key(r *http.Request) string {
	if g.Key != nil {
		return g.Bucket + ":" + g.Key(r)
	}
	return g.Bucket + ":" + common.ClientIP(r)
}
