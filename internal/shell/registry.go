package shell

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/catalog"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/viewport"
)

// Unmount reasons reported to metrics and logs.
const (
	ReasonExplicit = "explicit"
	ReasonReplaced = "replaced"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// Mounted is one live page: its resize subscription, layout probe and controller.
type Mounted struct {
	ID        string
	VisitorID string
	Lang      string

	Classifier *viewport.Classifier
	Probe      *carousel.Probe
	Controller *carousel.Controller

	mu       sync.Mutex
	lastSeen time.Time
	now      func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// Resize feeds a browser layout report. The card width is recorded before the
// classifier runs so a resulting mode change sees the new measurement.
func (m *Mounted) Resize(width, cardWidth float64) viewport.Mode {
	m.Touch()
	m.Probe.Report(cardWidth)
	mode, _ := m.Classifier.Observe(width)
	return mode
}

// Touch marks the shell as active.
func (m *Mounted) Touch() {
	m.mu.Lock()
	m.lastSeen = m.now()
	m.mu.Unlock()
}

// LastSeen reports the last activity.
func (m *Mounted) LastSeen() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

// Done is closed when the shell is unmounted.
func (m *Mounted) Done() <-chan struct{} { return m.done }

func (m *Mounted) close() {
	m.closeOnce.Do(func() {
		m.Classifier.Close()
		m.Controller.Close()
		close(m.done)
	})
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	IdleTTL time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Registry keeps the mounted shell of every visitor. A visitor has at most one
// shell; mounting again replaces the previous one.
type Registry struct {
	cat     *catalog.Catalog
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	shells  map[string]*Mounted
	entropy *ulid.MonotonicEntropy
}

// NewRegistry creates an empty registry over cat.
func NewRegistry(cat *catalog.Catalog, opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		cat:     cat,
		ttl:     opts.IdleTTL,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		shells:  map[string]*Mounted{},
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Catalog returns the catalog shared by every shell.
func (r *Registry) Catalog() *catalog.Catalog { return r.cat }

// Mount creates a shell for visitorID classified from the initial width.
func (r *Registry) Mount(visitorID, lang string, width float64) *Mounted {
	now := r.now()
	m := &Mounted{
		VisitorID: visitorID,
		Lang:      lang,
		Probe:     &carousel.Probe{},
		lastSeen:  now,
		now:       r.now,
		done:      make(chan struct{}),
	}

	var ctrl *carousel.Controller
	m.Classifier = viewport.NewClassifier(width, func(mode viewport.Mode) {
		r.metrics.ModeChanged(mode.String())
		ctrl.OnModeChange(mode)
	})
	ctrl = carousel.New(r.cat, m.Classifier.Mode(), m.Probe)
	m.Controller = ctrl

	r.mu.Lock()
	m.ID = ulid.MustNew(ulid.Timestamp(now), r.entropy).String()
	prev := r.shells[visitorID]
	r.shells[visitorID] = m
	r.mu.Unlock()

	if prev != nil {
		r.release(prev, ReasonReplaced)
	}
	r.metrics.Mounted()
	r.logger.Debug("shell mounted",
		zap.String("mount_id", m.ID),
		zap.String("mode", m.Classifier.Mode().String()),
		zap.Float64("width", width),
	)
	return m
}

// Get returns the visitor's shell. A non-empty mountID must match the current shell.
func (r *Registry) Get(visitorID, mountID string) (*Mounted, bool) {
	r.mu.Lock()
	m, ok := r.shells[visitorID]
	r.mu.Unlock()
	if !ok || (mountID != "" && m.ID != mountID) {
		return nil, false
	}
	m.Touch()
	return m, true
}

// Unmount tears down the visitor's shell. A non-empty mountID must match the
// current shell so a stale page cannot unmount its replacement.
func (r *Registry) Unmount(visitorID, mountID, reason string) bool {
	r.mu.Lock()
	m, ok := r.shells[visitorID]
	if !ok || (mountID != "" && m.ID != mountID) {
		r.mu.Unlock()
		return false
	}
	delete(r.shells, visitorID)
	r.mu.Unlock()

	r.release(m, reason)
	return true
}

// Len reports the number of mounted shells.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// Sweep unmounts shells idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var idle []*Mounted

	r.mu.Lock()
	for id, m := range r.shells {
		if m.LastSeen().Before(cutoff) {
			idle = append(idle, m)
			delete(r.shells, id)
		}
	}
	r.mu.Unlock()

	for _, m := range idle {
		r.release(m, ReasonIdle)
	}
	return len(idle)
}

// Run sweeps idle shells every interval until ctx is done, then unmounts everything.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("idle shells evicted", zap.Int("count", n))
			}
		}
	}
}

// Close unmounts every shell.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.shells
	r.shells = map[string]*Mounted{}
	r.mu.Unlock()

	for _, m := range all {
		r.release(m, ReasonShutdown)
	}
}

func (r *Registry) release(m *Mounted, reason string) {
	m.close()
	r.metrics.Unmounted(reason)
	r.logger.Debug("shell unmounted", zap.String("mount_id", m.ID), zap.String("reason", reason))
}
