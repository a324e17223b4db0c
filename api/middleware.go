package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const streamPath = "/dashboard/stream"

// compression accepts gzip request bodies and gzips responses for clients
// that ask for it. The task stream is left alone so every frame reaches the
// browser as soon as it is flushed.
func compression() []echo.MiddlewareFunc {
	skipStream := func(c echo.Context) bool {
		return c.Request().URL.Path == streamPath
	}
	return []echo.MiddlewareFunc{
		middleware.Decompress(),
		middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper:   skipStream,
			MinLength: 1024,
		}),
	}
}
