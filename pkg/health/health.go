// Package health serves liveness and readiness probes.
//
// Every registered probe is polled in the background. A probe turns unhealthy
// after FailureThreshold consecutive failures and healthy again after
// SuccessThreshold consecutive successes, so a single slow ping does not
// flip readiness.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Check reports nil when the component is healthy.
type Check func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind uint8

const (
	Liveness Kind = iota
	Readiness
)

// Probe describes a single periodic check.
type Probe struct {
	Name    string
	Kind    Kind
	Timeout time.Duration
	Check   Check

	// FailureThreshold defaults to 3.
	FailureThreshold int
	// SuccessThreshold defaults to 1.
	SuccessThreshold int
}

type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Owned by the polling goroutine.
	fails, oks int
}

func (p *probeState) run(ctx context.Context, lg *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := p.Check(ctx)
	if err == nil {
		p.fails = 0
		p.oks++
		p.lastErr.Store(nil)
		if p.oks >= p.SuccessThreshold && !p.healthy.Swap(true) {
			lg.Info("Probe recovered", zap.String("probe", p.Name))
		}
		return
	}

	msg := err.Error()
	p.lastErr.Store(&msg)
	p.oks = 0
	p.fails++
	if p.fails >= p.FailureThreshold && p.healthy.Swap(false) {
		lg.Warn("Probe failing", zap.String("probe", p.Name), zap.Error(err))
	}
}

// Health tracks probes and the manual readiness flag.
type Health struct {
	lg    *zap.Logger
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probeState
	cancel context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New(lg *zap.Logger) *Health {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Health{lg: lg}
}

// Register adds a probe. Probes start healthy.
func (h *Health) Register(p Probe) {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.SuccessThreshold <= 0 {
		p.SuccessThreshold = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = time.Second
	}
	s := &probeState{Probe: p}
	s.healthy.Store(true)

	h.mu.Lock()
	h.probes = append(h.probes, s)
	h.mu.Unlock()
}

// Start polls every probe at interval until ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	probes := slices.Clone(h.probes)
	h.mu.Unlock()

	for _, p := range probes {
		go h.poll(ctx, p, interval)
	}
}

func (h *Health) poll(ctx context.Context, p *probeState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.run(ctx, h.lg)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts polling. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness flag, e.g. false during shutdown.
func (h *Health) SetReady(ready bool) { h.ready.Store(ready) }

// Report is a point-in-time view of one probe kind.
type Report struct {
	// Failures maps unhealthy probe names to their last error.
	Failures map[string]string
}

// OK reports whether nothing is failing.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// Report snapshots the probes of the given kind. Readiness also fails while
// the service is not marked ready.
func (h *Health) Report(kind Kind) Report {
	h.mu.RLock()
	probes := slices.Clone(h.probes)
	h.mu.RUnlock()

	r := Report{Failures: map[string]string{}}
	for _, p := range probes {
		if p.Kind != kind || p.healthy.Load() {
			continue
		}
		msg := "check is unhealthy"
		if e := p.lastErr.Load(); e != nil {
			msg = *e
		}
		r.Failures[p.Name] = msg
	}
	if kind == Readiness && !h.ready.Load() {
		r.Failures["_readiness"] = "service is not ready"
	}
	return r
}

// Ready reports whether the service should receive traffic.
func (h *Health) Ready() bool { return h.Report(Readiness).OK() }

// LiveHandler serves /livez.
func (h *Health) LiveHandler() http.Handler { return h.handler(Liveness) }

// ReadyHandler serves /readyz.
func (h *Health) ReadyHandler() http.Handler { return h.handler(Readiness) }

func (h *Health) handler(kind Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r := h.Report(kind)

		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) {
				if r.OK() {
					e.Str("ok")
				} else {
					e.Str("unhealthy")
				}
			})
			if r.OK() {
				return
			}
			e.Field("checks", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					names := make([]string, 0, len(r.Failures))
					for name := range r.Failures {
						names = append(names, name)
					}
					slices.Sort(names)
					for _, name := range names {
						e.Field(name, func(e *jx.Encoder) { e.Str(r.Failures[name]) })
					}
				})
			})
		})

		status := http.StatusOK
		if !r.OK() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(e.Bytes())
	})
}
