// Package middleware holds the echo middleware of the sanctuary API.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vedanthangal/sanctuary/internal/logger"
)

// NewRequestLogger writes one line per request to log. Requests for which
// skip returns true are not logged; skip may be nil.
func NewRequestLogger(log logger.Logger, skip middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skip,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
				logger.String("remote_ip", v.RemoteIP),
			}
			log := log.WithContext(c.Request().Context())
			switch {
			case v.Error != nil:
				log.Warn("request failed", append(fields, logger.Error(v.Error))...)
			case v.Status >= 500:
				log.Warn("request failed", fields...)
			default:
				log.Debug("request", fields...)
			}
			return nil
		},
	})
}

// NewTraceID echoes the client's X-Request-Id, or a fresh UUID, and stores
// it in the request context so every WithContext logger carries trace_id.
func NewTraceID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}
