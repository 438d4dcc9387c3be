package ports

import (
	"context"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// PotholeRepository persists potholes and fronts the PostGIS functions.
type PotholeRepository interface {
	// NearbyPotholes calls nearby_potholes and returns rows closest first.
	NearbyPotholes(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error)
	// Increment calls increment(id_to_increment).
	Increment(ctx context.Context, id int64) error
	Create(ctx context.Context, location domain.GeoPoint, addr domain.Address) (*domain.Pothole, error)
	GetByID(ctx context.Context, id int64) (*domain.Pothole, error)
	// InView calls potholes_in_view for the bounding box.
	InView(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error)
	// Delete removes a pothole; it returns domain.ErrNotFound when no row matched.
	Delete(ctx context.Context, id int64) error
	// DeleteExpired removes potholes whose expires_at is before the given time.
	DeleteExpired(ctx context.Context, before time.Time, limit int) ([]int64, error)
}

// ImageRepository persists image rows. Binary content lives in an ObjectStore.
type ImageRepository interface {
	Create(ctx context.Context, potholeID int64) (*domain.Image, error)
	GetByID(ctx context.Context, id int64) (*domain.Image, error)
	ListByPothole(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error)
	IDsByPothole(ctx context.Context, potholeID int64) ([]int64, error)
	// Exists reports which of ids still have a row.
	Exists(ctx context.Context, ids []int64) (map[int64]bool, error)
}
