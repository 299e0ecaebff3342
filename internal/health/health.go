// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/webquote/internal/common"
)

// ErrDisabled marks an optional dependency that is not configured, such as
// Postgres when leads are not recorded. It does not fail readiness.
var ErrDisabled = errors.New("disabled")

var draining atomic.Bool

// SetReady toggles readiness. The API flips it off when shutdown begins so load
// balancers stop routing new wizard sessions to the instance.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Probe checks one dependency within Timeout (default 500ms).
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports that the process is serving.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and answers 503 if any fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	}
	rep, ok := h.Run(r.Context())
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, rep)
}

// Run evaluates the probes.
func (h Handler) Run(ctx context.Context) (Report, bool) {
	rep := Report{Status: "ok", Checks: make(map[string]string, len(h.Probes))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	healthy := true
	for _, p := range h.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			status, ok := p.run(ctx)
			mu.Lock()
			defer mu.Unlock()
			rep.Checks[p.Name] = status
			healthy = healthy && ok
		}(p)
	}
	wg.Wait()
	if !healthy {
		rep.Status = "degraded"
	}
	return rep, healthy
}

func (p Probe) run(ctx context.Context) (string, bool) {
	if p.Check == nil {
		return "not configured", false
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := p.Check(ctx)
	switch {
	case err == nil:
		return "ok", true
	case errors.Is(err, ErrDisabled):
		return ErrDisabled.Error(), true
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", false
	default:
		return err.Error(), false
	}
}
