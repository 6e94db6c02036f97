// Package imageopt resizes and re-encodes site images on demand and builds
// the responsive srcset markup that points browsers at those variants.
package imageopt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// Request names a source image and the variant wanted.
type Request struct {
	URL     string // site-absolute path of the source, e.g. "/jason-rogers.jpg"
	Width   int
	Quality int // 0 uses the configured default
}

// Variant is an encoded image ready to be served.
type Variant struct {
	Body        []byte
	ContentType string
	ETag        string
	Width       int
	Height      int
}

// Optimizer produces image variants from an asset filesystem and keeps
// recently produced ones in memory.
type Optimizer struct {
	cfg     Config
	assets  fs.FS
	cache   *expirable.LRU[string, Variant]
	group   singleflight.Group
	metrics *metrics
}

// New creates an Optimizer that reads source images from assets. It fails
// when cfg would make the loader emit URLs the optimizer itself rejects.
func New(assets fs.FS, cfg Config) (*Optimizer, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Optimizer{
		cfg:     cfg,
		assets:  assets,
		cache:   expirable.NewLRU[string, Variant](cfg.CacheEntries, nil, cfg.MinimumCacheTTL),
		metrics: newMetrics(cfg.Registerer),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Loader returns a Loader whose URLs this optimizer accepts.
func (o *Optimizer) Loader() Loader {
	return NewLoader(o.cfg)
}

// Optimize returns the variant described by req, from cache when possible.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (Variant, error) {
	if req.Quality == 0 {
		req.Quality = o.cfg.Quality
	}
	name, err := o.validate(req)
	if err != nil {
		o.metrics.failures.WithLabelValues(failureReason(err)).Inc()
		return Variant{}, err
	}

	key := name + "|" + strconv.Itoa(req.Width) + "|" + strconv.Itoa(req.Quality)
	if v, ok := o.cache.Get(key); ok {
		o.metrics.cacheHits.Inc()
		return v, nil
	}
	o.metrics.cacheMisses.Inc()

	if err := ctx.Err(); err != nil {
		return Variant{}, err
	}

	// The shared encode is not tied to any caller; each caller only stops
	// waiting when its own context ends.
	ch := o.group.DoChan(key, func() (any, error) {
		v, err := o.produce(name, req.Width, req.Quality)
		if err != nil {
			return Variant{}, err
		}
		o.cache.Add(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return Variant{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			o.metrics.failures.WithLabelValues(failureReason(res.Err)).Inc()
			return Variant{}, res.Err
		}
		return res.Val.(Variant), nil
	}
}

// validate checks req against the configuration and returns the asset name
// of the source inside the filesystem.
func (o *Optimizer) validate(req Request) (string, error) {
	if req.URL == "" {
		return "", invalid(`"url" parameter is required`)
	}
	if !strings.HasPrefix(req.URL, "/") || strings.HasPrefix(req.URL, "//") {
		return "", invalid(`"url" parameter is invalid`)
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", invalid(`"url" parameter is invalid`)
	}
	name := strings.TrimPrefix(path.Clean(u.Path), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", invalid(`"url" parameter is invalid`)
	}
	if req.Width <= 0 {
		return "", invalid(`"w" parameter (width) is required`)
	}
	if !slices.Contains(o.cfg.allSizes(), req.Width) {
		return "", invalid(fmt.Sprintf(`"w" parameter (width) of %d is not allowed`, req.Width))
	}
	if req.Quality < 1 || req.Quality > 100 {
		return "", invalid(`"q" parameter (quality) must be a number between 1 and 100`)
	}
	return name, nil
}

func (o *Optimizer) produce(name string, width, quality int) (Variant, error) {
	data, err := o.readSource(name)
	if err != nil {
		return Variant{}, err
	}

	start := time.Now()
	v, err := processImage(bytes.NewReader(data), width, quality)
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w", name, err)
	}
	o.metrics.encodeTime.Observe(time.Since(start).Seconds())
	o.metrics.optimized.WithLabelValues(v.ContentType).Inc()
	return v, nil
}

func (o *Optimizer) readSource(name string) ([]byte, error) {
	f, err := o.assets.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: /%s", ErrSourceNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: /%s", ErrSourceNotFound, name)
	}
	if info.Size() > o.cfg.MaxSourceBytes {
		return nil, fmt.Errorf("%w: /%s is %d bytes", ErrSourceTooLarge, name, info.Size())
	}

	data, err := io.ReadAll(io.LimitReader(f, o.cfg.MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > o.cfg.MaxSourceBytes {
		return nil, fmt.Errorf("%w: /%s", ErrSourceTooLarge, name)
	}
	return data, nil
}

// processImage decodes src, scales it down to width when it is wider, and
// encodes it. JPEG sources stay JPEG; everything else becomes PNG.
func processImage(src io.Reader, width, quality int) (Variant, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return Variant{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > width {
		newH := max(h*width/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
		w = width
		h = newH
	}

	var buf bytes.Buffer
	contentType := "image/png"
	if format == "jpeg" {
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return Variant{}, fmt.Errorf("encode %s: %w", contentType, err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return Variant{
		Body:        buf.Bytes(),
		ContentType: contentType,
		ETag:        `"` + hex.EncodeToString(sum[:16]) + `"`,
		Width:       w,
		Height:      h,
	}, nil
}
