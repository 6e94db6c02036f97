// Package page describes the home page: its metadata, its one image and the
// document tree built from them.
package page

import (
	"errors"
	"strings"

	"github.com/eringen/nextimage/imageopt"
)

// PageMetadata is what goes into the document head.
type PageMetadata struct {
	Title       string
	FaviconPath string
}

// ImageDescriptor names an image asset and its intrinsic pixel size.
// Width and Height must match the asset or the image renders distorted.
type ImageDescriptor struct {
	Src    string
	Alt    string
	Width  int
	Height int
	Layout imageopt.Layout
}

var (
	errEmptySrc    = errors.New("page: image src is empty")
	errRelativeSrc = errors.New("page: image src must be site-absolute")
	errBadSize     = errors.New("page: image width and height must be positive")
	errBadLayout   = errors.New("page: unknown image layout")
)

// Valid checks the descriptor is something the image component can render.
func (d ImageDescriptor) Valid() error {
	switch {
	case d.Src == "":
		return errEmptySrc
	case !strings.HasPrefix(d.Src, "/"):
		return errRelativeSrc
	case d.Width <= 0 || d.Height <= 0:
		return errBadSize
	case !d.Layout.Valid():
		return errBadLayout
	}
	return nil
}

// Metadata and Hero are the literals the home page is built from.
var (
	Metadata = PageMetadata{
		Title:       "Next Image on Netlify",
		FaviconPath: "/favicon.ico",
	}
	Hero = ImageDescriptor{
		Src:    "/jason-rogers.jpg",
		Alt:    "Jason in the Mr. Rogers “I’m not very good at it” meme.",
		Width:  1368,
		Height: 1044,
		Layout: imageopt.LayoutResponsive,
	}
)

// Head is the document head.
type Head struct {
	Title   string
	Favicon string
}

// Body is the document body: one heading and one image placeholder.
type Body struct {
	Heading string
	Image   ImageDescriptor
}

// Document is the page tree handed to the view.
type Document struct {
	Head Head
	Body Body
}

// Home returns the home page document. It takes no input and always
// returns the same tree.
func Home() Document {
	return Document{
		Head: Head{Title: Metadata.Title, Favicon: Metadata.FaviconPath},
		Body: Body{Heading: Metadata.Title, Image: Hero},
	}
}
