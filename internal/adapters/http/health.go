package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler is the liveness probe.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

// ReadyHandler pings Postgres, Valkey and NATS. Postgres is required; the
// others only report their state.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{
			"database": pingStatus(ctx, deps.DB),
			"cache":    pingStatus(ctx, deps.Cache),
			"nats":     "not configured",
		}
		if deps.NATS != nil {
			checks["nats"] = "disconnected"
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			}
		}

		ready := checks["database"] == "ok"
		for _, name := range []string{"cache", "nats"} {
			if s := checks[name]; s != "ok" && s != "not configured" {
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
