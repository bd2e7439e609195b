package layoutkit

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/eringen/layoutkit/layout"
	"github.com/eringen/layoutkit/views"
)

func (a *App) handleHome(c echo.Context) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, views.Home, layout.Context{"pages": pages})
}

// handlePage serves a stored page through the template it names.
func (a *App) handlePage(c echo.Context) error {
	url := NormalizePageURL(c.Request().URL.Path)
	if url == "" {
		return echo.ErrNotFound
	}
	page, err := a.Store.GetPage(c.Request().Context(), url)
	if errors.Is(err, ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	tpl := page.Template
	if tpl == "" {
		tpl = views.Page
	}
	return a.renderPage(c, http.StatusOK, tpl, layout.Context{
		"page":          page,
		"canonical_url": BuildURL(a.Config.URL, page.URL),
	})
}

// handleRESTPages lists published pages as JSON.
func (a *App) handleRESTPages(c echo.Context) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	if pages == nil {
		pages = []FlatPage{}
	}
	return c.JSON(http.StatusOK, pages)
}

func (a *App) handleSitemap(c echo.Context) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, pages)
}

func (a *App) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":        "ok",
		"process_group": a.Config.ProcessGroup,
		"templates":     len(a.Pages.Names()),
	})
}

// handleAsset serves a framework asset, preferring a copy in the static
// alias directory over the embedded one.
func (a *App) handleAsset(embedded fs.FS, name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dir, ok := a.Config.Aliases["/static/"]; ok {
			p := filepath.Join(dir, filepath.FromSlash(name))
			if _, err := os.Stat(p); err == nil {
				return c.File(p)
			}
		}
		return echo.StaticFileHandler(name, embedded)(c)
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		a.renderError(c, http.StatusNotFound, views.NotFound, err)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		a.renderError(c, code, views.ServerError, err)
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// renderError renders an error page, falling back to Echo's plain response
// when the page itself cannot be rendered.
func (a *App) renderError(c echo.Context, code int, name string, cause error) {
	if err := a.renderPage(c, code, name, nil); err != nil {
		c.Logger().Errorf("render %s: %v", name, err)
		a.Echo.DefaultHTTPErrorHandler(cause, c)
	}
}
