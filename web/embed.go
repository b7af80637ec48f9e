// Package web bundles the dashboard page, its htmx partials and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

var (
	//go:embed templates/*.html
	templates embed.FS

	//go:embed static
	static embed.FS
)

// Templates parses every page and partial. Partials are addressed by file name.
func Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

// Static serves app.css and app.js rooted at the static directory.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
