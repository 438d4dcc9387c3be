package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control on GET responses the
// handler left unset. Pothole data changes with every report, so API
// responses are only cached briefly.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		path := c.Path()
		var value string
		switch {
		case path == "/metrics", path == "/v1/health", path == "/v1/ready", path == "/ws":
			value = "no-cache"
		case strings.HasPrefix(path, "/v1/images/"):
			value = "public, max-age=3600"
		case strings.HasPrefix(path, "/v1/potholes/"):
			value = "public, max-age=30"
		case strings.HasPrefix(path, "/docs"):
			value = "public, max-age=3600"
		case strings.HasPrefix(path, "/v1/"):
			value = "public, max-age=15"
		}
		if c.Response().StatusCode() >= 400 {
			value = "no-store"
		}

		if value != "" {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
