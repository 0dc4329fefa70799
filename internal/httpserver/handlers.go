package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/httpserver/middleware"
	"finitefield.org/artifacts-web/internal/httpx"
	"finitefield.org/artifacts-web/internal/i18n"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/observability"
	"finitefield.org/artifacts-web/internal/promo"
	"finitefield.org/artifacts-web/internal/shell"
)

// ViewportWidthHeader is the client hint consulted for the initial width.
const ViewportWidthHeader = "Sec-CH-Viewport-Width"

type handlers struct {
	registry  *shell.Registry
	renderer  *shell.Renderer
	bundle    *i18n.Bundle
	promo     *promo.Source
	metrics   *metrics.Metrics
	assets    shell.AssetsView
	widthHint float64
	keepAlive time.Duration
}

// home mounts a fresh shell and renders the whole page.
func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	m := h.registry.Mount(sess.ID, middleware.Lang(r), h.initialWidth(r))
	w.Header().Set("Accept-CH", ViewportWidthHeader)
	h.renderPage(w, r, m)
}

// initialWidth reads ?w=, then the viewport client hint, then the configured default.
func (h *handlers) initialWidth(r *http.Request) float64 {
	for _, raw := range []string{r.URL.Query().Get("w"), r.Header.Get(ViewportWidthHeader)} {
		if w, ok := parseWidth(raw); ok && w > 0 {
			return w
		}
	}
	return h.widthHint
}

func (h *handlers) renderPage(w http.ResponseWriter, r *http.Request, m *shell.Mounted) {
	logger := observability.FromContext(r.Context())
	lang := middleware.Lang(r)

	var block *promo.Block
	if h.promo != nil {
		b, err := h.promo.Get(lang)
		if err != nil {
			logger.Warn("promo block unavailable", zap.Error(err))
		} else {
			block = &b
		}
	}

	st := m.Controller.Snapshot()
	start, end := st.VisibleRange()
	view := shell.BuildPage(shell.PageInput{
		Lang:      lang,
		Path:      r.URL.Path,
		MountID:   m.ID,
		State:     st,
		Visible:   h.registry.Catalog().Slice(start, end),
		Promo:     block,
		Languages: h.bundle.Supported(),
		Assets:    h.assets,
	}, h.bundle)

	html, err := h.renderer.Fragment("base", view)
	if err != nil {
		logger.Error("render page failed", zap.Error(err))
		httpx.InternalError(w, r, "page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// viewport records a browser layout report.
func (h *handlers) viewport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.BadRequest(w, r, "malformed form body")
		return
	}
	width, ok := parseWidth(r.PostForm.Get("width"))
	if !ok {
		httpx.BadRequest(w, r, "width must be a non-negative number")
		return
	}
	cardWidth := 0.0
	if raw := r.PostForm.Get("cardWidth"); raw != "" {
		if cardWidth, ok = parseWidth(raw); !ok {
			httpx.BadRequest(w, r, "cardWidth must be a non-negative number")
			return
		}
	}

	m, ok := h.lookup(r)
	if !ok {
		httpx.Conflict(w, r, "no mounted page for this visitor")
		return
	}
	mode := m.Resize(width, cardWidth)
	observability.FromContext(r.Context()).Debug("viewport reported",
		zap.Float64("width", width),
		zap.Float64("card_width", cardWidth),
		zap.String("mode", mode.String()),
	)
	w.WriteHeader(http.StatusNoContent)
}

// unmount tears the shell down; it is sent as a beacon so it always answers 204.
func (h *handlers) unmount(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sess := middleware.GetSession(r)
	if sess.ID != "" {
		h.registry.Unmount(sess.ID, strings.TrimSpace(r.PostForm.Get("mount")), shell.ReasonExplicit)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) prev(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "prev", func(c *carousel.Controller) { c.Navigate(carousel.Left) })
}

func (h *handlers) next(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "next", func(c *carousel.Controller) { c.Navigate(carousel.Right) })
}

func (h *handlers) dot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.BadRequest(w, r, "dot index must be an integer")
		return
	}
	h.act(w, r, "dot", func(c *carousel.Controller) { c.JumpToCard(index) })
}

// act applies a controller operation. Script requests get 204 and the stream
// carries the update; plain form posts get the re-rendered page and mount a
// fresh shell when none is live.
func (h *handlers) act(w http.ResponseWriter, r *http.Request, action string, op func(*carousel.Controller)) {
	_ = r.ParseForm()
	hyper := middleware.IsHypermedia(r.Context())

	m, ok := h.lookup(r)
	if !ok {
		if hyper {
			httpx.Conflict(w, r, "no mounted page for this visitor")
			return
		}
		m = h.registry.Mount(middleware.GetSession(r).ID, middleware.Lang(r), h.initialWidth(r))
	}

	h.metrics.Navigated(action, m.Controller.Snapshot().Mode.String())
	op(m.Controller)

	if hyper {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.renderPage(w, r, m)
}

func (h *handlers) lookup(r *http.Request) (*shell.Mounted, bool) {
	sess := middleware.GetSession(r)
	if sess.ID == "" {
		return nil, false
	}
	mount := strings.TrimSpace(r.URL.Query().Get("mount"))
	if mount == "" {
		mount = strings.TrimSpace(r.PostFormValue("mount"))
	}
	return h.registry.Get(sess.ID, mount)
}

func parseWidth(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
