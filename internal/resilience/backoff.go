package resilience

import (
	"math/rand/v2"
	"time"
)

// Backoff computes exponential delays: Base doubled per attempt, capped at Max,
// then spread by ±Jitter (a fraction, 0.2 is 20%).
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// Delay returns the wait before attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			d = b.Max
			break
		}
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if b.Jitter <= 0 {
		return d
	}
	spread := float64(d) * b.Jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
