package imageopt

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves optimized variants for GET <Path>?url=&w=&q= requests.
func Handler(o *Optimizer) echo.HandlerFunc {
	cacheControl := "public, max-age=" + strconv.Itoa(int(o.cfg.MinimumCacheTTL/time.Second)) + ", must-revalidate"

	return func(c echo.Context) error {
		req := Request{URL: c.QueryParam("url")}
		if req.URL == "" {
			return c.String(http.StatusBadRequest, `"url" parameter is required`)
		}

		w := c.QueryParam("w")
		if w == "" {
			return c.String(http.StatusBadRequest, `"w" parameter (width) is required`)
		}
		width, err := strconv.Atoi(w)
		if err != nil || width <= 0 {
			return c.String(http.StatusBadRequest, `"w" parameter (width) must be a number greater than 0`)
		}
		req.Width = width

		q := c.QueryParam("q")
		if q == "" {
			return c.String(http.StatusBadRequest, `"q" parameter (quality) is required`)
		}
		quality, err := strconv.Atoi(q)
		if err != nil || quality < 1 || quality > 100 {
			return c.String(http.StatusBadRequest, `"q" parameter (quality) must be a number between 1 and 100`)
		}
		req.Quality = quality

		v, err := o.Optimize(c.Request().Context(), req)
		if err != nil {
			var pe *paramError
			switch {
			case errors.As(err, &pe):
				return c.String(http.StatusBadRequest, pe.msg)
			case errors.Is(err, ErrSourceNotFound):
				return c.String(http.StatusNotFound, "The requested resource isn't a valid image.")
			case errors.Is(err, ErrUnsupportedFormat):
				return c.String(http.StatusUnsupportedMediaType, "The requested resource isn't a valid image.")
			case errors.Is(err, ErrSourceTooLarge):
				return c.String(http.StatusRequestEntityTooLarge, "The requested resource is too large.")
			}
			return err
		}

		h := c.Response().Header()
		h.Set("Cache-Control", cacheControl)
		h.Set("ETag", v.ETag)
		if c.Request().Header.Get("If-None-Match") == v.ETag {
			return c.NoContent(http.StatusNotModified)
		}
		return c.Blob(http.StatusOK, v.ContentType, v.Body)
	}
}
