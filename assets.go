package nextimage

import (
	"embed"
	"io/fs"
)

// embeddedPublic holds the assets the home page references:
// favicon.ico and jason-rogers.jpg.
//
//go:embed public/*
var embeddedPublic embed.FS

// PublicAssets returns the embedded public directory rooted at "/".
func PublicAssets() fs.FS {
	sub, err := fs.Sub(embeddedPublic, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
