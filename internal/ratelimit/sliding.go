package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding counts events in a Redis sorted set scored by arrival time, so the
// quota applies to any Window-long span rather than to calendar buckets.
type Sliding struct {
	Client redis.Cmdable
	Prefix string
}

// Allow records the event and reports whether it fits the rule. Rejected events
// still count, which keeps a client hammering the endpoint locked out.
func (s Sliding) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	now := time.Now()
	if s.Client == nil || rule.disabled() {
		return open(rule, now), nil
	}

	setKey := s.Prefix + key
	cutoff := strconv.FormatInt(now.Add(-rule.Window).UnixNano(), 10)

	pipe := s.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", "("+cutoff)
	pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, setKey)
	oldest := pipe.ZRangeWithScores(ctx, setKey, 0, 0)
	pipe.PExpire(ctx, setKey, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Reset: now.Add(rule.Window)}, err
	}

	reset := now.Add(rule.Window)
	if first := oldest.Val(); len(first) == 1 {
		reset = time.Unix(0, int64(first[0].Score)).Add(rule.Window)
	}
	used := int(count.Val())
	return Decision{
		Allowed:   used <= rule.Max,
		Remaining: max(rule.Max-used, 0),
		Reset:     reset,
	}, nil
}
