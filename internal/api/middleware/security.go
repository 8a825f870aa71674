package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const oneYear = 365 * 24 * 60 * 60

// SecurityConfig controls the hardening middleware in front of the API.
type SecurityConfig struct {
	// AllowedOrigins enables CORS when non-empty. The dashboard frontend is
	// usually served from a different origin than the API.
	AllowedOrigins []string
	// BodyLimit caps request bodies, e.g. "1M". Empty means no cap.
	BodyLimit string
}

// NewSecurity returns the middleware chain for cfg: CORS when origins are
// configured, then the body cap, then response headers.
func NewSecurity(cfg SecurityConfig) []echo.MiddlewareFunc {
	var chain []echo.MiddlewareFunc
	if len(cfg.AllowedOrigins) > 0 {
		chain = append(chain, NewCORS(cfg.AllowedOrigins))
	}
	if cfg.BodyLimit != "" {
		chain = append(chain, middleware.BodyLimit(cfg.BodyLimit))
	}
	return append(chain, middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         oneYear,
		ReferrerPolicy:     "no-referrer",
	}))
}

// NewCORS admits the listed origins. Sightings are created with POST and
// verified with PATCH; everything else is a read.
func NewCORS(origins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	})
}
