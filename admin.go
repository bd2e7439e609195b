package layoutkit

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/layoutkit/layout"
	"github.com/eringen/layoutkit/views"
)

// The admin sits behind basic auth; it has no login of its own.

func (a *App) handleAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	pages, err := a.Store.ListAllPages(ctx)
	if err != nil {
		return err
	}
	edit := FlatPage{Template: views.Page, Published: true}
	if url := NormalizePageURL(c.QueryParam("url")); url != "" {
		edit, err = a.Store.GetPageAny(ctx, url)
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		if err != nil {
			return err
		}
	}
	return a.renderPage(c, http.StatusOK, views.Admin, layout.Context{
		"pages":     pages,
		"edit":      edit,
		"templates": views.PageTemplates,
	})
}

func (a *App) handleAdminSave(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return a.adminRedirect(c, "Title is required.")
	}
	url := NormalizePageURL(c.FormValue("url"))
	if url == "" {
		url = NormalizePageURL(Slugify(title))
	}
	if url == "" {
		return a.adminRedirect(c, "URL is required. Add a title or URL.")
	}
	tpl := strings.TrimSpace(c.FormValue("template"))
	if tpl == "" {
		tpl = views.Page
	}
	if !views.IsPageTemplate(tpl) {
		return a.adminRedirect(c, "Unknown template "+tpl+".")
	}
	if err := a.Store.SavePage(c.Request().Context(), FlatPage{
		URL:       url,
		Title:     title,
		Content:   c.FormValue("content"),
		Template:  tpl,
		Published: c.FormValue("published") != "",
	}); err != nil {
		return err
	}
	c.Logger().Infof("admin: saved %s", url)
	return a.adminRedirect(c, "Saved "+url+".")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	url := NormalizePageURL(c.FormValue("url"))
	err := a.Store.DeletePage(c.Request().Context(), url)
	if errors.Is(err, ErrNotFound) {
		return a.adminRedirect(c, "No page at "+url+".")
	}
	if err != nil {
		return err
	}
	c.Logger().Infof("admin: deleted %s", url)
	return a.adminRedirect(c, "Deleted "+url+".")
}

// adminRedirect flashes msg and sends the browser back to the page list.
func (a *App) adminRedirect(c echo.Context, msg string) error {
	if err := addFlash(c, msg); err != nil {
		c.Logger().Warnf("flash: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}
