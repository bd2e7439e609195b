package layoutkit

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/layoutkit/layout"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component is rendered in full before anything is written, so a
// failing render never produces a truncated page.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// renderPage renders the registry page name with vars plus the per-request
// keys every page expects.
func (a *App) renderPage(c echo.Context, code int, name string, vars layout.Context) error {
	page, err := a.Pages.Page(name)
	if err != nil {
		return err
	}
	return RenderStatus(c, code, page.Component(a.pageContext(c, vars)))
}

// pageContext builds the Page Context of a request. Queries recorded so far
// are included when the request is in debug mode.
func (a *App) pageContext(c echo.Context, vars layout.Context) layout.Context {
	ctx := make(layout.Context, len(vars)+6)
	for k, v := range vars {
		ctx[k] = v
	}
	ctx[layout.KeyStaticURL] = a.Config.StaticURL
	ctx["SITE_NAME"] = a.Config.Name
	ctx["request_path"] = c.Request().URL.Path
	ctx["csrf_token"] = CsrfToken(c)
	if msgs := popFlashes(c); len(msgs) > 0 {
		ctx["messages"] = msgs
	}
	if IsDebug(c) {
		ctx[layout.KeyDebug] = true
		ctx[layout.KeySQLQueries] = QueryLogFrom(c.Request().Context()).Queries()
	}
	return ctx
}
