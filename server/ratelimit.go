package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	// BurstMultiplier sizes the token bucket relative to the per-second rate.
	BurstMultiplier  = 2
	RateLimitCleanup = 3 * time.Minute
)

// RateLimit limits each client IP to requestsPerSecond. Zero or negative disables limiting.
// Rejections surface as TooManyRequests envelopes through the central error handler.
func RateLimit(requestsPerSecond int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     requestsPerSecond * BurstMultiplier,
				ExpiresIn: RateLimitCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(echo.Context, error) error {
			return NewTooManyRequestsError("")
		},
		DenyHandler: func(echo.Context, string, error) error {
			return NewTooManyRequestsError("")
		},
	})
}
