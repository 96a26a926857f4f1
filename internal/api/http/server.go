package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oshokin/alarm-assistant/internal/api/ws"
	"github.com/oshokin/alarm-assistant/internal/logger"
	"github.com/oshokin/alarm-assistant/internal/service/assistant"
)

// NewServer configures the echo instance with middleware and all routes.
// The hub is optional; without it the notification endpoint is not mounted.
func NewServer(svc *assistant.Service, hub *ws.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	handler := NewHandler(svc, hub)
	handler.RegisterRoutes(e)

	return e
}

// requestLogger logs every request through the application logger.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			logger.Infof(req.Context(), "%s %s -> %d (%s)",
				req.Method, req.RequestURI, c.Response().Status, time.Since(start).Round(time.Millisecond))

			return err
		}
	}
}
