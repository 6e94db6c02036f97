package nextimage

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/nextimage/page"
)

func (a *App) handleHome(c echo.Context) error {
	return Render(c, page.View(page.Home(), a.Optimizer.Loader()))
}

func (a *App) handleFavicon(c echo.Context) error {
	return echo.StaticFileHandler(strings.TrimPrefix(page.Metadata.FaviconPath, "/"), a.assets)(c)
}

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, page.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, page.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// HomeHTML renders the home page outside of a request.
func (a *App) HomeHTML(ctx context.Context) ([]byte, error) {
	return RenderBytes(ctx, page.View(page.Home(), a.Optimizer.Loader()))
}
