package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// Deprecation describes a route that is kept for old clients.
type Deprecation struct {
	Sunset    time.Time
	Successor string // optional link to the replacement route
}

// DeprecatedRoute wraps h so its responses carry Deprecation, Sunset and
// Link headers (RFC 8594, RFC 8288).
func DeprecatedRoute(d Deprecation, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		c.Set("Sunset", d.Sunset.UTC().Format(httpDate))
		if d.Successor != "" {
			c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, d.Successor))
		}
		days := time.Until(d.Sunset).Hours() / 24
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
		return h(c)
	}
}
