package usecases

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
	"github.com/aipothole/pothole-api/internal/pkg/telemetry"
)

// DecideAlert reports whether a driver should be warned. Failures and empty
// lookups never alert.
func DecideAlert(r domain.ProximityResult, thresholdMeters float64) bool {
	return r.Status == domain.ProximityFound && r.DistanceMeters <= thresholdMeters
}

// AlertService answers whether a nearby pothole warrants a driver alert.
type AlertService struct {
	gateway   *ProximityGateway
	threshold float64
}

// NewAlertService creates a new AlertService.
func NewAlertService(potholes ports.PotholeRepository, alertThresholdMeters float64) *AlertService {
	return &AlertService{gateway: NewProximityGateway(potholes), threshold: alertThresholdMeters}
}

// ShouldAlert looks up the closest pothole to (lat, long).
func (s *AlertService) ShouldAlert(ctx context.Context, lat, long float64) bool {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAlert)
	defer span.End()

	closest := s.gateway.FindClosest(ctx, lat, long)
	if closest.Status == domain.ProximityFailure {
		span.RecordError(closest.Err)
		slog.WarnContext(ctx, "alert lookup failed", "error", closest.Err)
	}

	alert := DecideAlert(closest, s.threshold)
	span.SetAttributes(
		attribute.String(telemetry.AttrProximity, closest.Status.String()),
		attribute.Bool("alert", alert),
	)
	if alert {
		metrics.AlertChecks.WithLabelValues("true").Inc()
	} else {
		metrics.AlertChecks.WithLabelValues("false").Inc()
	}
	return alert
}
