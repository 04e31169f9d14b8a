// Package web serves the dashboard of the monitor.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed dist
var dist embed.FS

// AssetsDirEnv names a directory that replaces the embedded dashboard, which
// is handy while editing the page.
const AssetsDirEnv = "TANKERSIM_MONITOR_ASSETS"

// Assets returns the dashboard files.
func Assets() fs.FS {
	if dir := os.Getenv(AssetsDirEnv); dir != "" {
		return os.DirFS(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return sub
}

// Handler serves the dashboard. Paths without an extension that name no file
// get index.html, so links such as /steps/3 open the page.
func Handler() http.Handler {
	assets := Assets()
	files := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			files.ServeHTTP(w, r)
			return
		}

		if _, err := fs.Stat(assets, name); err != nil && path.Ext(name) == "" {
			http.ServeFileFS(w, r, assets, "index.html")
			return
		}

		files.ServeHTTP(w, r)
	})
}
