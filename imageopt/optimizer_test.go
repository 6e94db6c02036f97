package imageopt

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"
	"time"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newOptimizer(t *testing.T, assets fs.FS, cfg Config) *Optimizer {
	t.Helper()
	o, err := New(assets, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

func testAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"photo.jpg":    {Data: encodeJPEG(t, 1368, 1044)},
		"icon.png":     {Data: encodePNG(t, 40, 20)},
		"notes.txt":    {Data: []byte("not an image")},
		"nested/a.jpg": {Data: encodeJPEG(t, 100, 50)},
	}
}

func TestOptimizeDownscalesJPEG(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{})

	v, err := o.Optimize(context.Background(), Request{URL: "/photo.jpg", Width: 640, Quality: 75})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if v.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", v.ContentType)
	}
	if v.Width != 640 || v.Height != 1044*640/1368 {
		t.Errorf("size = %dx%d, want 640x%d", v.Width, v.Height, 1044*640/1368)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(v.Body))
	if err != nil {
		t.Fatalf("decode variant: %v", err)
	}
	if cfg.Width != v.Width || cfg.Height != v.Height {
		t.Errorf("encoded size = %dx%d, want %dx%d", cfg.Width, cfg.Height, v.Width, v.Height)
	}
	if v.ETag == "" {
		t.Error("ETag should not be empty")
	}
}

func TestOptimizeNeverUpscales(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{})

	v, err := o.Optimize(context.Background(), Request{URL: "/nested/a.jpg", Width: 3840, Quality: 75})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if v.Width != 100 || v.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", v.Width, v.Height)
	}
}

func TestOptimizePNGStaysPNG(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{})

	v, err := o.Optimize(context.Background(), Request{URL: "/icon.png", Width: 16})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if v.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", v.ContentType)
	}
	if v.Width != 16 || v.Height != 8 {
		t.Errorf("size = %dx%d, want 16x8", v.Width, v.Height)
	}
}

func TestOptimizeCachesVariants(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{})
	req := Request{URL: "/photo.jpg", Width: 750, Quality: 60}

	first, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("first Optimize failed: %v", err)
	}
	second, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("second Optimize failed: %v", err)
	}
	if first.ETag != second.ETag {
		t.Errorf("ETag changed between calls: %q vs %q", first.ETag, second.ETag)
	}
	if o.cache.Len() != 1 {
		t.Errorf("cache holds %d variants, want 1", o.cache.Len())
	}
}

func TestOptimizeErrors(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{MaxSourceBytes: 1 << 20})
	big := newOptimizer(t, fstest.MapFS{"huge.jpg": {Data: make([]byte, 2048)}}, Config{MaxSourceBytes: 1024})

	tests := []struct {
		name string
		opt  *Optimizer
		req  Request
		want error
	}{
		{"missing url", o, Request{Width: 640}, ErrInvalidParams},
		{"remote url", o, Request{URL: "https://example.com/a.jpg", Width: 640}, ErrInvalidParams},
		{"protocol relative", o, Request{URL: "//example.com/a.jpg", Width: 640}, ErrInvalidParams},
		{"missing width", o, Request{URL: "/photo.jpg"}, ErrInvalidParams},
		{"width not allowed", o, Request{URL: "/photo.jpg", Width: 641}, ErrInvalidParams},
		{"quality too high", o, Request{URL: "/photo.jpg", Width: 640, Quality: 101}, ErrInvalidParams},
		{"not found", o, Request{URL: "/missing.jpg", Width: 640}, ErrSourceNotFound},
		{"directory", o, Request{URL: "/nested", Width: 640}, ErrSourceNotFound},
		{"not an image", o, Request{URL: "/notes.txt", Width: 640}, ErrUnsupportedFormat},
		{"too large", big, Request{URL: "/huge.jpg", Width: 640}, ErrSourceTooLarge},
	}
	for _, tt := range tests {
		_, err := tt.opt.Optimize(context.Background(), tt.req)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestOptimizeCancelledContext(t *testing.T) {
	o := newOptimizer(t, testAssets(t), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Optimize(ctx, Request{URL: "/photo.jpg", Width: 640})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if o.cache.Len() != 0 {
		t.Errorf("failed variant should not be cached")
	}
}

// gatedFS blocks Open until release is closed, and reports each Open on opened.
type gatedFS struct {
	fs.FS
	opened  chan struct{}
	release chan struct{}
}

func (g gatedFS) Open(name string) (fs.File, error) {
	g.opened <- struct{}{}
	<-g.release
	return g.FS.Open(name)
}

func TestOptimizeSharedWorkSurvivesCancelledCaller(t *testing.T) {
	g := gatedFS{FS: testAssets(t), opened: make(chan struct{}, 4), release: make(chan struct{})}
	o := newOptimizer(t, g, Config{})
	req := Request{URL: "/photo.jpg", Width: 640, Quality: 75}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := o.Optimize(ctxA, req)
		errA <- err
	}()
	<-g.opened

	var wg sync.WaitGroup
	var errB error
	var vB Variant
	wg.Add(1)
	go func() {
		defer wg.Done()
		vB, errB = o.Optimize(context.Background(), req)
	}()

	// Give B time to join the in-flight encode before A goes away.
	time.Sleep(50 * time.Millisecond)
	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}

	close(g.release)
	wg.Wait()
	if errB != nil {
		t.Fatalf("live caller failed: %v", errB)
	}
	if vB.Width != 640 {
		t.Errorf("live caller width = %d, want 640", vB.Width)
	}
	if len(g.opened) != 0 {
		t.Errorf("source opened %d extra times, want one shared read", len(g.opened))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"quality too high", Config{Quality: 150}},
		{"negative quality", Config{Quality: -1}},
		{"zero device size", Config{DeviceSizes: []int{0, 640}}},
		{"negative image size", Config{ImageSizes: []int{-16}}},
		{"negative ttl", Config{MinimumCacheTTL: -time.Second}},
	}
	for _, tt := range tests {
		if _, err := New(testAssets(t), tt.cfg); err == nil {
			t.Errorf("%s: New succeeded, want error", tt.name)
		}
	}
}
