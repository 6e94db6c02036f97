package nextimage

import (
	"io/fs"
	"os"
	"time"

	"github.com/eringen/nextimage/imageopt"
)

// Config holds all configuration for the site server.
type Config struct {
	Addr string // Listen address (default ":3000")

	Image imageopt.Config // Optimizer sizes, quality and cache settings

	ImageRateLimit  int           // Optimizer requests per IP per minute (default 120, negative disables)
	MetricsDisabled bool          // Do not expose /metrics
	ShutdownTimeout time.Duration // Grace period for in-flight requests (default 10s)
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ImageRateLimit == 0 {
		c.ImageRateLimit = 120
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs during Setup, after the built-in routes.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir serves public assets from dir instead of the embedded set.
func WithStaticDir(dir string) Option {
	return WithAssets(os.DirFS(dir))
}

// WithAssets serves public assets, and optimizer sources, from fsys.
func WithAssets(fsys fs.FS) Option {
	return func(a *App) {
		a.assets = fsys
	}
}
