// Package views holds the site's base layout and page templates. They are
// embedded in the binary and compiled once into a layout.Registry.
package views

import (
	"embed"
	"io/fs"

	"github.com/eringen/layoutkit/layout"
)

//go:embed templates/*.html
var files embed.FS

// Template names.
const (
	Base        = "base.html"
	Home        = "home.html"
	Page        = "page.html"
	Wide        = "wide.html"
	Admin       = "admin.html"
	NotFound    = "404.html"
	ServerError = "500.html"
)

// PageTemplates lists the templates a stored page may be rendered with.
var PageTemplates = []string{Page, Wide}

// FS returns the embedded template directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load registers the template filters and compiles every embedded template.
func Load(opts ...layout.Option) (*layout.Registry, error) {
	return LoadFS(FS(), opts...)
}

// LoadFS is Load for templates outside the binary, such as a theme
// directory opened with os.DirFS.
func LoadFS(fsys fs.FS, opts ...layout.Option) (*layout.Registry, error) {
	if err := registerFilters(); err != nil {
		return nil, err
	}
	return layout.Load(fsys, opts...)
}

// IsPageTemplate reports whether name can render a stored page.
func IsPageTemplate(name string) bool {
	for _, t := range PageTemplates {
		if t == name {
			return true
		}
	}
	return false
}
