// Package web holds the static assets of the monitoring frontend.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed index.html
var assets embed.FS

// GetAssets returns the file system that contains all the static assets
// of the monitoring server.
func GetAssets() http.FileSystem {
	fsys, err := fs.Sub(assets, ".")
	if err != nil {
		panic(err)
	}

	return http.FS(fsys)
}
