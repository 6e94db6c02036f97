package imageopt

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Layout selects how an image scales with its container.
type Layout string

const (
	LayoutIntrinsic  Layout = "intrinsic"
	LayoutFixed      Layout = "fixed"
	LayoutResponsive Layout = "responsive"
	LayoutFill       Layout = "fill"
)

// Valid reports whether l is one of the known layouts.
func (l Layout) Valid() bool {
	switch l {
	case LayoutIntrinsic, LayoutFixed, LayoutResponsive, LayoutFill:
		return true
	}
	return false
}

// ImgAttrs are the attributes an <img> needs to fetch optimized variants.
type ImgAttrs struct {
	Src    string
	SrcSet string
	Sizes  string
}

// Loader builds optimizer URLs and srcset candidates for a given Config.
// The zero Loader behaves like NewLoader(Config{}).
type Loader struct {
	path        string
	quality     int
	deviceSizes []int
	allSizes    []int
}

// NewLoader returns a Loader for cfg. Unset fields take their defaults.
func NewLoader(cfg Config) Loader {
	cfg.setDefaults()
	return Loader{
		path:        cfg.Path,
		quality:     cfg.Quality,
		deviceSizes: cfg.DeviceSizes,
		allSizes:    cfg.allSizes(),
	}
}

func (l Loader) withDefaults() Loader {
	if len(l.allSizes) == 0 {
		return NewLoader(Config{})
	}
	return l
}

// URL returns the optimizer URL for src at width. A zero quality uses the
// configured default.
func (l Loader) URL(src string, width, quality int) string {
	l = l.withDefaults()
	if quality <= 0 {
		quality = l.quality
	}
	return l.path + "?url=" + url.QueryEscape(src) +
		"&w=" + strconv.Itoa(width) +
		"&q=" + strconv.Itoa(quality)
}

var viewportWidth = regexp.MustCompile(`(^|\s)(1?\d?\d)vw`)

// widths picks the candidate widths and the srcset descriptor kind ('w' or 'x').
func (l Loader) widths(width int, layout Layout, sizes string) ([]int, byte) {
	fluid := layout == LayoutResponsive || layout == LayoutFill
	if sizes != "" && fluid {
		var percents []int
		for _, m := range viewportWidth.FindAllStringSubmatch(sizes, -1) {
			if n, err := strconv.Atoi(m[2]); err == nil {
				percents = append(percents, n)
			}
		}
		if len(percents) > 0 {
			smallest := percents[0]
			for _, p := range percents[1:] {
				smallest = min(smallest, p)
			}
			floor := float64(l.deviceSizes[0]) * float64(smallest) / 100
			var out []int
			for _, s := range l.allSizes {
				if float64(s) >= floor {
					out = append(out, s)
				}
			}
			return out, 'w'
		}
		return l.allSizes, 'w'
	}
	if width <= 0 || fluid {
		return l.deviceSizes, 'w'
	}
	var out []int
	for _, target := range []int{width, width * 2} {
		w := l.allSizes[len(l.allSizes)-1]
		for _, s := range l.allSizes {
			if s >= target {
				w = s
				break
			}
		}
		if len(out) == 0 || out[len(out)-1] != w {
			out = append(out, w)
		}
	}
	return out, 'x'
}

// Attrs returns src, srcset and sizes for an image of the given intrinsic
// width rendered with layout.
func (l Loader) Attrs(src string, width int, layout Layout, sizes string, quality int) ImgAttrs {
	l = l.withDefaults()
	widths, kind := l.widths(width, layout, sizes)
	candidates := make([]string, len(widths))
	for i, w := range widths {
		descriptor := strconv.Itoa(w) + "w"
		if kind == 'x' {
			descriptor = strconv.Itoa(i+1) + "x"
		}
		candidates[i] = l.URL(src, w, quality) + " " + descriptor
	}
	if sizes == "" && kind == 'w' {
		sizes = "100vw"
	}
	return ImgAttrs{
		Src:    l.URL(src, widths[len(widths)-1], quality),
		SrcSet: strings.Join(candidates, ", "),
		Sizes:  sizes,
	}
}
