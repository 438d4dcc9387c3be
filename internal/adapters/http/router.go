package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/aipothole/pothole-api/internal/pkg/metrics"
)

// legacyDeleteSunset is when DELETE /v1/potholes?id= goes away.
var legacyDeleteSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        deps.rateLimit(),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, CodeRateLimited, "too many requests, please try again later", nil)
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health and readiness run without the request timeout.
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	limit := deps.requestTimeout()
	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, limit)
	}
	adminOnly := RequireRole(deps.JWTSecret, RoleAdmin)

	v1 := app.Group("/v1")

	v1.Get("/potholes", withTimeout(PotholesInViewHandler(deps)))
	v1.Get("/potholes/:id", withTimeout(GetPotholeHandler(deps)))
	v1.Delete("/potholes/:id", adminOnly, withTimeout(DeletePotholeHandler(deps)))
	v1.Delete("/potholes", adminOnly, DeprecatedRoute(
		Deprecation{Sunset: legacyDeleteSunset, Successor: "/v1/potholes/{id}"},
		withTimeout(LegacyDeletePotholeHandler(deps)),
	))

	v1.Post("/images", withTimeout(CreateImageHandler(deps)))
	v1.Get("/images", withTimeout(ListImagesHandler(deps)))
	v1.Get("/images/:id", withTimeout(GetImageHandler(deps)))

	// potholes:report and potholes:alert. Registered last so it never
	// shadows the literal routes above.
	v1.Post("/:resource", withTimeout(PotholeActionHandler(deps)))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	SetupDocs(app, deps.DocsPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
