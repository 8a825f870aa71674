package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestRecorder records one served request. *metrics.HTTPMetrics
// implements it.
type RequestRecorder interface {
	RecordHTTPRequest(method, path, statusCode string, duration float64, size int64)
}

// NewMetrics records method, route pattern, status, latency and response
// size of every request. The route pattern keeps label cardinality bounded.
func NewMetrics(recorder RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error has not been written yet; echo's error handler will.
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			recorder.RecordHTTPRequest(
				c.Request().Method,
				path,
				strconv.Itoa(status),
				time.Since(start).Seconds(),
				c.Response().Size,
			)
			return err
		}
	}
}
