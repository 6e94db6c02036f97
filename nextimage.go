// Package nextimage serves a single-page site whose one image is delivered
// through an on-demand image optimizer, built with Go, Echo, and templ.
//
// The page itself is a fixed document (see package page); this package wires
// it to HTTP together with the public assets, the optimizer route and
// Prometheus metrics.
package nextimage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/nextimage/imageopt"
	"github.com/eringen/nextimage/page"
)

// App is the central application. It wires together the page, the public
// assets, the image optimizer, middleware and metrics.
type App struct {
	Config    Config
	Echo      *echo.Echo
	Optimizer *imageopt.Optimizer
	Registry  *prometheus.Registry

	assets       fs.FS
	imageLimiter *ipLimiter
	customRoutes []func(*App)
	ready        bool
}

// New creates an App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Registry: prometheus.NewRegistry(),
		assets:   PublicAssets(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup builds the optimizer and installs middleware and routes. It is
// called by Start; tests call it directly and drive Echo.ServeHTTP.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := page.Hero.Valid(); err != nil {
		return fmt.Errorf("nextimage: %w", err)
	}
	a.checkAssets()

	imgCfg := a.Config.Image
	imgCfg.Registerer = a.Registry
	opt, err := imageopt.New(a.assets, imgCfg)
	if err != nil {
		return fmt.Errorf("nextimage: %w", err)
	}
	a.Optimizer = opt

	if a.Config.ImageRateLimit > 0 {
		a.imageLimiter = newIPLimiter(a.Config.ImageRateLimit, time.Minute)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// checkAssets warns about referenced assets missing from the bundle. Those
// surface to visitors as a broken image or missing icon, the page still renders.
func (a *App) checkAssets() {
	for _, p := range []string{page.Metadata.FaviconPath, page.Hero.Src} {
		if _, err := fs.Stat(a.assets, strings.TrimPrefix(p, "/")); err != nil {
			a.Echo.Logger.Warnf("asset %s is not in the public bundle: %v", p, err)
		}
	}
}

// Start sets up the app and serves HTTP until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("nextimage: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/", a.handleHome)
	e.GET("/healthz", handleHealth)
	e.GET(page.Metadata.FaviconPath, a.handleFavicon)

	imageHandler := imageopt.Handler(a.Optimizer)
	if a.imageLimiter != nil {
		e.GET(a.Optimizer.Config().Path, imageHandler, a.imageLimiter.middleware)
	} else {
		e.GET(a.Optimizer.Config().Path, imageHandler)
	}

	if !a.Config.MetricsDisabled {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: a.Registry,
		}))
	}

	// Everything else is a public asset: /jason-rogers.jpg and friends.
	e.StaticFS("/", a.assets)
}

// Close stops background work and closes the listener.
func (a *App) Close() error {
	if a.imageLimiter != nil {
		a.imageLimiter.Stop()
	}
	return a.Echo.Close()
}
