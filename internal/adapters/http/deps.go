package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aipothole/pothole-api/internal/core/usecases"
)

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Reports  *usecases.ReportService
	Alerts   *usecases.AlertService
	Potholes *usecases.PotholeService
	Images   *usecases.ImageService

	NATS  *nats.Conn
	DB    Pinger
	Cache Pinger

	// JWTSecret enables bearer-token auth on destructive routes when set.
	JWTSecret string
	// RequestTimeout bounds each API request; zero means 15s.
	RequestTimeout time.Duration
	// RateLimit is the number of requests per minute per IP; zero means 120.
	RateLimit int
	// DocsPath is the OpenAPI document served at /docs/openapi.yaml.
	DocsPath string
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return 15 * time.Second
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit > 0 {
		return d.RateLimit
	}
	return 120
}
