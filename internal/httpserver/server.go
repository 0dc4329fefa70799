// Package httpserver wires the landing page routes, the update stream and the
// middleware stack into an *http.Server.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/artifacts-web/internal/httpserver/middleware"
	"finitefield.org/artifacts-web/internal/httpx"
	"finitefield.org/artifacts-web/internal/i18n"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/observability"
	"finitefield.org/artifacts-web/internal/promo"
	"finitefield.org/artifacts-web/internal/shell"
)

const (
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultWidthHint      = 1280
	defaultKeepAlive      = 25 * time.Second
)

// Config holds runtime options and collaborators of the HTTP server.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	// KeepAlive is the interval of empty stream events.
	KeepAlive time.Duration
	// WidthHint is the viewport width assumed when the request does not say.
	WidthHint float64

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Registry *shell.Registry
	Renderer *shell.Renderer
	Bundle   *i18n.Bundle
	Promo    *promo.Source
	Assets   shell.AssetsView
	Session  middleware.SessionConfig
}

// New constructs the HTTP server with the middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	cfg = cfg.withDefaults()
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          zap.NewStdLog(cfg.Logger),
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.WidthHint <= 0 {
		cfg.WidthHint = defaultWidthHint
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Assets == (shell.AssetsView{}) {
		cfg.Assets = shell.DefaultAssets()
	}
	return cfg
}

// NewRouter builds the route tree. The update stream is mounted outside the
// compression and timeout middleware so it can stay open.
func NewRouter(cfg Config) http.Handler {
	cfg = cfg.withDefaults()
	h := &handlers{
		registry:  cfg.Registry,
		renderer:  cfg.Renderer,
		bundle:    cfg.Bundle,
		promo:     cfg.Promo,
		metrics:   cfg.Metrics,
		assets:    cfg.Assets,
		widthHint: cfg.WidthHint,
		keepAlive: cfg.KeepAlive,
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	router.Use(chimw.RealIP)
	router.Use(observability.TraceMiddleware())
	router.Use(observability.InjectLoggerMiddleware(cfg.Logger))
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(cfg.Logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.NotFound(w, r, "no such page")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteProblem(r.Context(), w, httpx.Problem{Status: http.StatusMethodNotAllowed, Instance: r.URL.Path})
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", cfg.Metrics.Handler())
	router.With(chimw.Compress(5)).Handle("/assets/*", http.StripPrefix("/assets/", shell.AssetsHandler(shell.AssetsFS())))

	router.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session))
		r.Use(middleware.Locale(cfg.Bundle))
		r.Use(middleware.Hypermedia)
		r.Use(middleware.NoStore)

		r.Get(shell.StreamPath, h.stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(cfg.RequestTimeout))

			r.Get("/", h.home)
			r.Post(shell.ViewportPath, h.viewport)
			r.Post(shell.UnmountPath, h.unmount)
			r.Post(shell.ActionPrev, h.prev)
			r.Post(shell.ActionNext, h.next)
			r.Post(shell.ActionDotBase+"{index}", h.dot)
		})
	})

	return router
}
