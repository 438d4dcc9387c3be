package usecases

import (
	"context"
	"fmt"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
)

// ProximityGateway fronts the database functions that locate and mutate potholes.
type ProximityGateway struct {
	potholes ports.PotholeRepository
}

// NewProximityGateway creates a new ProximityGateway.
func NewProximityGateway(potholes ports.PotholeRepository) *ProximityGateway {
	return &ProximityGateway{potholes: potholes}
}

// FindClosest returns the closest known pothole to (lat, long).
// A failed lookup is never reported as NotFound.
func (g *ProximityGateway) FindClosest(ctx context.Context, lat, long float64) domain.ProximityResult {
	rows, err := g.potholes.NearbyPotholes(ctx, lat, long)
	if err != nil {
		metrics.ProximityFailures.Inc()
		return domain.ProximityFailed(fmt.Errorf("nearby potholes: %w", err))
	}
	if len(rows) == 0 {
		return domain.ProximityNone()
	}
	metrics.ProximityDistance.Observe(rows[0].DistanceMeters)
	return domain.ProximityAt(rows[0].ID, rows[0].DistanceMeters)
}

// IncrementReportCount bumps the report count of pothole id.
func (g *ProximityGateway) IncrementReportCount(ctx context.Context, id int64) error {
	if err := g.potholes.Increment(ctx, id); err != nil {
		return fmt.Errorf("increment pothole %d: %w", id, err)
	}
	return nil
}

// CreatePothole inserts a new pothole at (lat, long) with one report.
func (g *ProximityGateway) CreatePothole(ctx context.Context, lat, long float64, addr domain.Address) (*domain.Pothole, error) {
	p, err := g.potholes.Create(ctx, domain.GeoPoint{Lat: lat, Long: long}, addr)
	if err != nil {
		return nil, fmt.Errorf("create pothole: %w", err)
	}
	return p, nil
}
