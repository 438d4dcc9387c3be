package workflows

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aipothole/pothole-api/internal/core/usecases"
	"github.com/aipothole/pothole-api/internal/pkg/telemetry"
)

// MaintenanceActivities holds the activity implementations for the maintenance workflow.
type MaintenanceActivities struct {
	Potholes *usecases.PotholeService
	Images   *usecases.ImageService
}

// PurgeExpiredPotholes deletes up to limit potholes that have not been
// reported within their expiry window. Image rows cascade.
func (a *MaintenanceActivities) PurgeExpiredPotholes(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMaintenance)
	defer span.End()

	n, err := a.Potholes.PurgeExpired(ctx, time.Now().UTC(), limit)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.String("maintenance.kind", "potholes"), attribute.Int("maintenance.count", n))
	return n, nil
}

// PurgeOrphanImages deletes stored image content without an image row.
func (a *MaintenanceActivities) PurgeOrphanImages(ctx context.Context, batch int) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMaintenance)
	defer span.End()

	n, err := a.Images.PurgeOrphans(ctx, batch)
	if err != nil {
		span.RecordError(err)
		return n, err
	}
	span.SetAttributes(attribute.String("maintenance.kind", "orphan_images"), attribute.Int("maintenance.count", n))
	return n, nil
}
