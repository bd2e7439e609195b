// Package layoutkit serves pages composed from a base layout and child
// templates, built with Go, Echo and the layout package.
//
// It provides the deployment boundary around the composer out of the box:
// static aliases, basic authentication with an allow-list of public
// prefixes, a SQLite page store whose queries feed the debug panel, a small
// page admin, a REST listing and a sitemap.
package layoutkit

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/netip"
	"os"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/layoutkit/layout"
	"github.com/eringen/layoutkit/views"
)

// App is the central layoutkit application. It wires together the store,
// the page registry, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Pages  *layout.Registry

	gate         *authGate
	internal     []netip.Prefix
	customRoutes []func(*App)
}

// New creates a new layoutkit App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init validates the configuration, opens the store, compiles the templates
// and registers middleware and routes. Start calls it.
func (a *App) Init() error {
	if err := a.Config.validate(); err != nil {
		return fmt.Errorf("layoutkit: invalid config: %w", err)
	}

	internal, err := parsePrefixes(a.Config.InternalIPs)
	if err != nil {
		return fmt.Errorf("layoutkit: internal ips: %w", err)
	}
	a.internal = internal

	gate, err := newAuthGate(a.Config)
	if err != nil {
		return fmt.Errorf("layoutkit: init auth: %w", err)
	}
	a.gate = gate

	a.Echo.Logger.SetPrefix(a.Config.ProcessGroup)

	if a.Pages == nil {
		pages, err := views.Load(
			layout.WithLogger(a.Echo.Logger),
			layout.WithStrict(a.Config.StrictTemplates),
		)
		if err != nil {
			return fmt.Errorf("layoutkit: load templates: %w", err)
		}
		a.Pages = pages
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("layoutkit: init store: %w", err)
	}
	a.Store = store

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the application and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	defer a.Close()

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are served from the binary unless an alias directory
	// provides its own copy.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	for _, asset := range []string{"css/base.css", "css/wide.css", "js/site.js"} {
		if strings.HasPrefix(a.Config.StaticURL, "/") {
			e.GET(a.Config.StaticURL+asset, a.handleAsset(embeddedFS, asset))
		}
		if a.Config.StaticURL != "/static/" {
			e.GET("/static/"+asset, a.handleAsset(embeddedFS, asset))
		}
	}

	prefixes := make([]string, 0, len(a.Config.Aliases))
	for prefix := range a.Config.Aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		e.Static(strings.TrimSuffix(prefix, "/"), a.Config.Aliases[prefix])
	}

	// Public API, exempt from basic auth by default.
	e.GET("/rest/pages/", a.handleRESTPages)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/healthz", a.handleHealth)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/save/", a.handleAdminSave)
	e.POST("/admin/delete/", a.handleAdminDelete)

	e.GET("/", a.handleHome)
	e.GET("/*", a.handlePage)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
