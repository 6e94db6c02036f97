package imageopt

import (
	"strings"
	"testing"
)

func TestLoaderURL(t *testing.T) {
	l := NewLoader(Config{})

	got := l.URL("/jason-rogers.jpg", 640, 0)
	want := "/_next/image?url=%2Fjason-rogers.jpg&w=640&q=75"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	if got := l.URL("/a.png", 16, 50); !strings.HasSuffix(got, "&w=16&q=50") {
		t.Errorf("URL with quality = %q", got)
	}
}

func TestAttrsResponsiveUsesDeviceSizes(t *testing.T) {
	l := NewLoader(Config{})

	a := l.Attrs("/jason-rogers.jpg", 1368, LayoutResponsive, "", 0)
	if a.Sizes != "100vw" {
		t.Errorf("Sizes = %q, want 100vw", a.Sizes)
	}
	candidates := strings.Split(a.SrcSet, ", ")
	if len(candidates) != 8 {
		t.Fatalf("srcset has %d candidates, want 8: %q", len(candidates), a.SrcSet)
	}
	if candidates[0] != "/_next/image?url=%2Fjason-rogers.jpg&w=640&q=75 640w" {
		t.Errorf("first candidate = %q", candidates[0])
	}
	if a.Src != "/_next/image?url=%2Fjason-rogers.jpg&w=3840&q=75" {
		t.Errorf("Src = %q", a.Src)
	}
}

func TestAttrsFixedUsesDensityDescriptors(t *testing.T) {
	l := NewLoader(Config{})

	a := l.Attrs("/logo.png", 100, LayoutFixed, "", 0)
	want := "/_next/image?url=%2Flogo.png&w=128&q=75 1x, /_next/image?url=%2Flogo.png&w=256&q=75 2x"
	if a.SrcSet != want {
		t.Errorf("SrcSet = %q, want %q", a.SrcSet, want)
	}
	if a.Sizes != "" {
		t.Errorf("Sizes = %q, want empty", a.Sizes)
	}
}

func TestAttrsDeduplicatesLargeWidths(t *testing.T) {
	l := NewLoader(Config{})

	a := l.Attrs("/wide.jpg", 3000, LayoutIntrinsic, "", 0)
	if a.SrcSet != "/_next/image?url=%2Fwide.jpg&w=3840&q=75 1x" {
		t.Errorf("SrcSet = %q", a.SrcSet)
	}
}

func TestAttrsResponsiveWithSizes(t *testing.T) {
	l := NewLoader(Config{})

	a := l.Attrs("/a.jpg", 1368, LayoutResponsive, "(max-width: 600px) 50vw, 33vw", 0)
	if a.Sizes != "(max-width: 600px) 50vw, 33vw" {
		t.Errorf("Sizes = %q", a.Sizes)
	}
	// 33vw of the smallest device size (640) is 211.2, so 256 is the first candidate.
	if !strings.HasPrefix(a.SrcSet, "/_next/image?url=%2Fa.jpg&w=256&q=75 256w") {
		t.Errorf("SrcSet = %q", a.SrcSet)
	}
}

func TestZeroLoaderUsesDefaults(t *testing.T) {
	var l Loader

	if got := l.URL("/a.jpg", 640, 0); got != "/_next/image?url=%2Fa.jpg&w=640&q=75" {
		t.Errorf("URL = %q", got)
	}
	a := l.Attrs("/a.jpg", 1368, LayoutResponsive, "", 0)
	if a.Src != "/_next/image?url=%2Fa.jpg&w=3840&q=75" {
		t.Errorf("Src = %q", a.Src)
	}
	a = l.Attrs("/a.jpg", 100, LayoutFixed, "", 0)
	if a.SrcSet == "" {
		t.Error("fixed srcset should not be empty")
	}
}
