package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes wires middleware, handlers and the JSON error handler.
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg Config) {
	e.HTTPErrorHandler = jsonErrorHandler

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			return next(c)
		}
	})

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit),
			Burst:     burst,
			ExpiresIn: time.Minute,
		})))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/quote", h.Quote)
	v1.GET("/pool-id", h.PoolID)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		_ = c.JSON(he.Code, ErrorResponse{Error: http.StatusText(he.Code), Code: he.Code})
		return
	}
	_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: http.StatusInternalServerError})
}
