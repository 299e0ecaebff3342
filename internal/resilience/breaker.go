package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values fall back to sensible defaults.
type Settings struct {
	// Name labels metrics and logs, e.g. "smtp".
	Name string
	// Window is how many recent outcomes the failure ratio is computed over.
	Window       int
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Breaker trips after too many failures among the last Window calls, rejects
// calls for OpenFor, then lets a single probe through to decide whether to close.
type Breaker struct {
	mu       sync.Mutex
	cfg      Settings
	state    State
	outcomes []bool
	next     int
	seen     int
	failed   int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a closed breaker.
func NewBreaker(s Settings) *Breaker {
	if s.Name == "" {
		s.Name = "default"
	}
	if s.MinRequests <= 0 {
		s.MinRequests = 1
	}
	if s.Window < s.MinRequests {
		s.Window = max(2*s.MinRequests, 10)
	}
	if s.FailureRatio <= 0 || s.FailureRatio > 1 {
		s.FailureRatio = 0.5
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	b := &Breaker{cfg: s, outcomes: make([]bool, s.Window)}
	b.publishState()
	return b
}

// State returns the current position, moving Open to HalfOpen once OpenFor elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.coolingDone() {
		return HalfOpen
	}
	return b.state
}

// Do runs fn unless the breaker is open. Errors marked Permanent count as
// successes of the dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.acquire(ctx)
	if err != nil {
		return err
	}
	callErr := fn(ctx)
	b.record(ctx, probe, callErr == nil || IsPermanent(callErr))
	return callErr
}

func (b *Breaker) acquire(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if !b.coolingDone() {
			return false, ErrOpenCircuit
		}
		b.moveLocked(ctx, HalfOpen)
		b.probing = true
		return true, nil
	case HalfOpen:
		if b.probing {
			return false, ErrOpenCircuit
		}
		b.probing = true
		return true, nil
	}
	return false, nil
}

func (b *Breaker) record(ctx context.Context, probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probing = false
		if ok {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}
	if b.state != Closed {
		return
	}

	if b.seen == len(b.outcomes) && !b.outcomes[b.next] {
		b.failed--
	}
	b.outcomes[b.next] = ok
	b.next = (b.next + 1) % len(b.outcomes)
	if b.seen < len(b.outcomes) {
		b.seen++
	}
	if !ok {
		b.failed++
	}
	if b.seen >= b.cfg.MinRequests && float64(b.failed)/float64(b.seen) >= b.cfg.FailureRatio {
		b.moveLocked(ctx, Open)
	}
}

func (b *Breaker) coolingDone() bool {
	return b.cfg.Now().Sub(b.openedAt) >= b.cfg.OpenFor
}

func (b *Breaker) moveLocked(ctx context.Context, to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	switch to {
	case Open:
		b.openedAt = b.cfg.Now()
	case Closed:
		b.seen, b.next, b.failed = 0, 0, 0
	}
	b.publishState()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(b.cfg.Name, from.String(), to.String()).Inc()
	}

	logger := b.cfg.Logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Warn()
	if to == Closed {
		evt = logger.Info()
	}
	evt = evt.Str("dependency", b.cfg.Name).Str("from", from.String()).Str("to", to.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishState() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.cfg.Name).Set(float64(b.state))
	}
}
