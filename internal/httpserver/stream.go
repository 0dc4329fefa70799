package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/httpx"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/observability"
	"finitefield.org/artifacts-web/internal/shell"
)

const catalogSelector = "#catalog"

// stream pushes a re-rendered catalog section and scroll instructions for every
// controller change until the client goes away or the shell is unmounted.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(r)
	if !ok {
		httpx.Conflict(w, r, "no mounted page for this visitor")
		return
	}
	logger := observability.FromContext(r.Context()).With(zap.String("mount_id", m.ID))

	// the stream outlives the server write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("clear write deadline", zap.Error(err))
	}

	pending := newPendingUpdates(h.metrics)
	cancel := m.Controller.Subscribe(pending.observe)
	defer cancel()

	sse := datastar.NewSSE(w, r)
	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	out := &sseWriter{h: h, sse: sse, m: m}
	if err := h.pump(sse.Context(), m, pending, out); err != nil {
		logger.Warn("update stream ended", zap.Error(err))
	}
}

// streamWriter is the client side of an update stream.
type streamWriter interface {
	Patch(st carousel.State) error
	Scroll(s carousel.ScrollInstruction) error
	KeepAlive() error
}

// pump writes the current catalog state, then one patch per wake-up, until ctx
// ends or the shell is unmounted. Every patch renders the state as it is at write
// time, so a slow client skips intermediate states instead of replaying them.
func (h *handlers) pump(ctx context.Context, m *shell.Mounted, pending *pendingUpdates, out streamWriter) error {
	// state may have moved between the page render and this request
	if err := out.Patch(m.Controller.Snapshot()); err != nil {
		return fmt.Errorf("initial patch: %w", err)
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.Done():
			return nil
		case <-keepAlive.C:
			if err := out.KeepAlive(); err != nil {
				return nil
			}
		case <-pending.wake:
			scroll := pending.takeScroll()
			if err := out.Patch(m.Controller.Snapshot()); err != nil {
				return fmt.Errorf("patch: %w", err)
			}
			if scroll != nil {
				if err := out.Scroll(*scroll); err != nil {
					return nil
				}
			}
		}
	}
}

// pendingUpdates folds controller changes arriving between two stream writes
// into a single wake-up and a single scroll instruction.
type pendingUpdates struct {
	wake    chan struct{}
	metrics *metrics.Metrics

	mu     sync.Mutex
	scroll *carousel.ScrollInstruction
}

func newPendingUpdates(m *metrics.Metrics) *pendingUpdates {
	return &pendingUpdates{wake: make(chan struct{}, 1), metrics: m}
}

// observe is the controller observer; it never blocks.
func (p *pendingUpdates) observe(c carousel.Change) {
	if c.Scroll != nil {
		p.mu.Lock()
		p.scroll = mergeScroll(p.scroll, *c.Scroll)
		p.mu.Unlock()
	}
	select {
	case p.wake <- struct{}{}:
	default:
		p.metrics.UpdateCoalesced()
	}
}

func (p *pendingUpdates) takeScroll() *carousel.ScrollInstruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.scroll
	p.scroll = nil
	return s
}

// mergeScroll combines a queued instruction with a newer one. An absolute scroll
// replaces whatever came before; a relative one shifts the queued target.
func mergeScroll(prev *carousel.ScrollInstruction, next carousel.ScrollInstruction) *carousel.ScrollInstruction {
	if prev == nil || next.Kind == carousel.ScrollTo {
		return &next
	}
	merged := *prev
	merged.Left += next.Left
	return &merged
}

type sseWriter struct {
	h   *handlers
	sse *datastar.ServerSentEventGenerator
	m   *shell.Mounted
}

func (w *sseWriter) Patch(st carousel.State) error {
	start, end := st.VisibleRange()
	view := shell.BuildCatalogView(st, w.h.registry.Catalog().Slice(start, end), w.m.Lang, w.h.bundle)
	view.MountID = w.m.ID
	html, err := w.h.renderer.Catalog(view)
	if err != nil {
		return err
	}
	return w.sse.PatchElements(html, datastar.WithSelector(catalogSelector), datastar.WithMode(datastar.ElementPatchModeOuter))
}

func (w *sseWriter) Scroll(s carousel.ScrollInstruction) error {
	return w.sse.ExecuteScript(scrollScript(s))
}

func (w *sseWriter) KeepAlive() error {
	return w.sse.PatchSignals([]byte(`{}`))
}

// scrollScript is a fire-and-forget smooth scroll of the carousel strip.
func scrollScript(s carousel.ScrollInstruction) string {
	method := "scrollBy"
	if s.Kind == carousel.ScrollTo {
		method = "scrollTo"
	}
	return fmt.Sprintf(`document.getElementById("catalog-strip")?.%s({left: %s, behavior: "smooth"})`,
		method, strconv.FormatFloat(s.Left, 'f', -1, 64))
}
