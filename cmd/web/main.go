package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/catalog"
	"finitefield.org/artifacts-web/internal/config"
	"finitefield.org/artifacts-web/internal/httpserver"
	"finitefield.org/artifacts-web/internal/httpserver/middleware"
	"finitefield.org/artifacts-web/internal/i18n"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/observability"
	"finitefield.org/artifacts-web/internal/promo"
	"finitefield.org/artifacts-web/internal/shell"
	"finitefield.org/artifacts-web/internal/viewport"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "artifacts-web",
		Short:        "Landing page server for the artifacts catalog",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Serve the landing page (default)
  artifacts-web

  # Show how the catalog paginates on a phone
  artifacts-web catalog --width 390
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default artifacts-web.{yaml,toml,json} in . or /etc/artifacts-web)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file loaded outside production (default .env)")

	cmd.AddCommand(newServeCmd(opts), newCatalogCmd(opts))
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(config.Options{ConfigFile: opts.configFile, EnvFile: opts.envFile})
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := loadCatalog(cfg.Catalog.File)
	if err != nil {
		logger.Error("load catalog", zap.Error(err))
		return err
	}
	bundle, err := i18n.Embedded()
	if err != nil {
		logger.Error("load translations", zap.Error(err))
		return err
	}
	renderer, err := shell.NewRenderer(shell.RendererOptions{Dev: cfg.Dev, Dir: cfg.TemplatesDir})
	if err != nil {
		logger.Error("parse templates", zap.Error(err))
		return err
	}

	// refuse to start when the page would have nowhere to mount
	if err := renderer.VerifyMount(samplePage(cat, bundle)); err != nil {
		logger.Error("page mount check failed", zap.Error(err))
		return err
	}

	m := metrics.New()
	registry := shell.NewRegistry(cat, shell.RegistryOptions{
		IdleTTL: cfg.Shell.IdleTTL,
		Logger:  logger.Named("shell"),
		Metrics: m,
	})

	srv := httpserver.New(httpserver.Config{
		Address:      cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		WidthHint:    cfg.Shell.WidthHint,
		Logger:       logger,
		Metrics:      m,
		Registry:     registry,
		Renderer:     renderer,
		Bundle:       bundle,
		Promo:        promo.Embedded(bundle.Fallback()),
		Assets:       shell.DefaultAssets(),
		Session: middleware.SessionConfig{
			SigningKey: []byte(cfg.Session.SigningKey),
			Secure:     cfg.Session.Secure,
		},
	})
	if cfg.Session.SigningKey == "" {
		logger.Warn("session signing key not set; visitor cookies will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registryDone := make(chan struct{})
	go func() {
		defer close(registryDone)
		registry.Run(ctx, sweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("server listening",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("env", cfg.Environment),
		zap.Int("catalog_items", cat.Len()),
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
			stop()
			<-registryDone
			return err
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// unmounting first ends the open update streams so Shutdown can drain
	<-registryDone
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func samplePage(cat *catalog.Catalog, bundle *i18n.Bundle) shell.PageView {
	ctrl := carousel.New(cat, viewport.Wide, nil)
	return shell.BuildPage(shell.PageInput{
		Lang:      bundle.Fallback(),
		Path:      "/",
		MountID:   "startup-check",
		State:     ctrl.Snapshot(),
		Visible:   ctrl.VisibleItems(),
		Languages: bundle.Supported(),
		Assets:    shell.DefaultAssets(),
	}, bundle)
}

type catalogOptions struct {
	width float64
	lang  string
}

func newCatalogCmd(root *rootOptions) *cobra.Command {
	opts := &catalogOptions{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the catalog layout for a viewport width",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{ConfigFile: root.configFile, EnvFile: root.envFile})
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg.Catalog.File)
			if err != nil {
				return err
			}
			bundle, err := i18n.Embedded()
			if err != nil {
				return err
			}
			lang := opts.lang
			if lang == "" || !bundle.IsSupported(lang) {
				lang = bundle.Fallback()
			}
			return printLayout(cmd.OutOrStdout(), cat, bundle, lang, opts.width)
		},
	}
	cmd.Flags().Float64Var(&opts.width, "width", 1280, "viewport width in CSS pixels")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "caption language")
	return cmd
}

// printLayout walks the controller through every page (or card) at width.
func printLayout(w io.Writer, cat *catalog.Catalog, tr shell.Translator, lang string, width float64) error {
	mode := viewport.Classify(width)
	ctrl := carousel.New(cat, mode, nil)
	st := ctrl.Snapshot()
	if _, err := fmt.Fprintf(w, "mode=%s items=%d per_page=%d pages=%d\n",
		mode, cat.Len(), st.ItemsPerPage(), st.TotalPages()); err != nil {
		return err
	}
	if cat.Len() == 0 {
		_, err := fmt.Fprintln(w, tr.T(lang, "catalog.empty"))
		return err
	}

	for {
		st = ctrl.Snapshot()
		view := shell.BuildCatalogView(st, ctrl.VisibleItems(), lang, tr)
		ids := make([]string, 0, len(view.Cards))
		for _, c := range view.Cards {
			if mode == viewport.Compact && !c.Active {
				continue
			}
			ids = append(ids, c.ID)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", view.Caption, strings.Join(ids, ", ")); err != nil {
			return err
		}
		if st.NavDisabled(carousel.Right) {
			return nil
		}
		ctrl.Navigate(carousel.Right)
	}
}
