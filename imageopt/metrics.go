package imageopt

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	optimized   *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	failures    *prometheus.CounterVec
	encodeTime  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		optimized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nextimage_optimized_images_total",
			Help: "Image variants produced, by output content type",
		}, []string{"content_type"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "nextimage_variant_cache_hits_total",
			Help: "Variant requests served from the in-memory cache",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "nextimage_variant_cache_misses_total",
			Help: "Variant requests that required decoding the source",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nextimage_optimize_failures_total",
			Help: "Optimization requests rejected or failed, by reason",
		}, []string{"reason"}),
		encodeTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nextimage_optimize_duration_seconds",
			Help:    "Time spent decoding, scaling and encoding a variant",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParams):
		return "invalid_params"
	case errors.Is(err, ErrSourceNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrSourceTooLarge):
		return "too_large"
	default:
		return "internal"
	}
}
