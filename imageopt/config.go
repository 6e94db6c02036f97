package imageopt

import (
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config controls which variants the optimizer is willing to produce and
// how long it keeps them.
type Config struct {
	DeviceSizes     []int         // srcset widths for responsive/fill layouts
	ImageSizes      []int         // extra widths for small fixed/intrinsic images
	Quality         int           // default encode quality (default 75)
	Path            string        // route the loader points at (default "/_next/image")
	MinimumCacheTTL time.Duration // variant lifetime, also sent as max-age (default 60s)
	CacheEntries    int           // max variants held in memory (default 256)
	MaxSourceBytes  int64         // largest source asset accepted (default 20MiB)

	// Registerer receives the optimizer metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

func (c *Config) setDefaults() {
	if len(c.DeviceSizes) == 0 {
		c.DeviceSizes = []int{640, 750, 828, 1080, 1200, 1920, 2048, 3840}
	}
	if len(c.ImageSizes) == 0 {
		c.ImageSizes = []int{16, 32, 48, 64, 96, 128, 256, 384}
	}
	if c.Quality == 0 {
		c.Quality = 75
	}
	if c.Path == "" {
		c.Path = "/_next/image"
	}
	if c.MinimumCacheTTL == 0 {
		c.MinimumCacheTTL = 60 * time.Second
	}
	if c.CacheEntries == 0 {
		c.CacheEntries = 256
	}
	if c.MaxSourceBytes == 0 {
		c.MaxSourceBytes = 20 << 20
	}
	c.DeviceSizes = sortedCopy(c.DeviceSizes)
	c.ImageSizes = sortedCopy(c.ImageSizes)
}

func (c *Config) validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("imageopt: quality %d is outside 1..100", c.Quality)
	}
	for _, s := range c.allSizes() {
		if s <= 0 {
			return fmt.Errorf("imageopt: image and device sizes must be positive, got %d", s)
		}
	}
	if c.CacheEntries < 0 {
		return fmt.Errorf("imageopt: cache entries must not be negative, got %d", c.CacheEntries)
	}
	if c.MinimumCacheTTL < 0 {
		return fmt.Errorf("imageopt: minimum cache TTL must not be negative, got %s", c.MinimumCacheTTL)
	}
	return nil
}

func sortedCopy(s []int) []int {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}

// allSizes returns image and device sizes merged in ascending order.
func (c *Config) allSizes() []int {
	return sortedCopy(slices.Concat(c.ImageSizes, c.DeviceSizes))
}
