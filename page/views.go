package page

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/nextimage/imageopt"
)

const (
	containerStyle = "margin:0 auto;max-width:800px;padding:0 1rem"
	mainStyle      = "min-height:100vh;padding:4rem 0;display:flex;flex-direction:column;align-items:center"
	titleStyle     = "margin:0 0 2rem;line-height:1.15;font-size:4rem;text-align:center"

	responsiveWrapperStyle = "display:block;overflow:hidden;position:relative;box-sizing:border-box;margin:0"
	fillWrapperStyle       = "display:block;overflow:hidden;position:absolute;top:0;left:0;bottom:0;right:0;box-sizing:border-box;margin:0"
	fluidImgStyle          = "position:absolute;top:0;left:0;bottom:0;right:0;box-sizing:border-box;padding:0;border:none;margin:auto;display:block;width:0;height:0;min-width:100%;max-width:100%;min-height:100%;max-height:100%"
)

// View renders doc as a complete HTML document.
func View(doc Document, loader imageopt.Loader) templ.Component {
	return Layout(doc.Head, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<main style="`+mainStyle+`"><h1 style="`+titleStyle+`">`+
			templ.EscapeString(doc.Body.Heading)+`</h1><p>`); err != nil {
			return err
		}
		if err := Image(doc.Body.Image, loader).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</p></main>`)
		return err
	}))
}

// Layout wraps body in the html/head/body skeleton.
func Layout(head Head, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>` + templ.EscapeString(head.Title) + `</title>`)
		if head.Favicon != "" {
			b.WriteString(`<link rel="icon" href="` + templ.EscapeString(head.Favicon) + `">`)
		}
		b.WriteString(`</head><body><div style="` + containerStyle + `">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// Image renders d the way the framework image component does: an <img>
// whose srcset points at optimizer variants, wrapped in a sizer for the
// fluid layouts so the page reserves the right aspect ratio before load.
func Image(d ImageDescriptor, loader imageopt.Loader) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := loader.Attrs(d.Src, d.Width, d.Layout, "", 0)

		var b strings.Builder
		img := func(style string) {
			b.WriteString(`<img alt="` + templ.EscapeString(d.Alt) + `"`)
			b.WriteString(` src="` + templ.EscapeString(attrs.Src) + `"`)
			b.WriteString(` srcset="` + templ.EscapeString(attrs.SrcSet) + `"`)
			if attrs.Sizes != "" {
				b.WriteString(` sizes="` + templ.EscapeString(attrs.Sizes) + `"`)
			}
			if style == "" {
				b.WriteString(` width="` + strconv.Itoa(d.Width) + `" height="` + strconv.Itoa(d.Height) + `"`)
			}
			b.WriteString(` decoding="async" loading="lazy"`)
			if style != "" {
				b.WriteString(` style="` + style + `"`)
			}
			b.WriteString(`>`)
		}

		switch d.Layout {
		case imageopt.LayoutResponsive:
			ratio := strconv.FormatFloat(float64(d.Height)/float64(d.Width)*100, 'f', -1, 64)
			b.WriteString(`<span style="` + responsiveWrapperStyle + `">`)
			b.WriteString(`<span style="display:block;box-sizing:border-box;padding-top:` + ratio + `%"></span>`)
			img(fluidImgStyle)
			b.WriteString(`</span>`)
		case imageopt.LayoutFill:
			b.WriteString(`<span style="` + fillWrapperStyle + `">`)
			img(fluidImgStyle)
			b.WriteString(`</span>`)
		default:
			img("")
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// NotFound and ServerError are the error documents served by the app.
func NotFound() templ.Component {
	return message("404: This page could not be found.")
}

func ServerError() templ.Component {
	return message("500: Internal Server Error.")
}

func message(text string) templ.Component {
	return Layout(Head{Title: text, Favicon: Metadata.FaviconPath}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<main style="`+mainStyle+`"><h1 style="font-size:1.5rem">`+templ.EscapeString(text)+`</h1></main>`)
		return err
	}))
}
