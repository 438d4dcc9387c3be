package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/geospatial"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
)

// PotholeService handles pothole queries and deletion.
type PotholeService struct {
	potholes  ports.PotholeRepository
	images    ports.ImageRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewPotholeService creates a new PotholeService. cache and publisher may be nil.
func NewPotholeService(
	potholes ports.PotholeRepository,
	images ports.ImageRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
) *PotholeService {
	return &PotholeService{potholes: potholes, images: images, cache: cache, publisher: publisher}
}

// InView returns the potholes inside the bounding box.
func (s *PotholeService) InView(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error) {
	var cacheKey string
	if s.cache != nil {
		cacheKey = inViewKey(ctx, s.cache, b)
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rows []domain.PotholeSummary
			if err := json.Unmarshal(data, &rows); err == nil {
				metrics.CacheHits.WithLabelValues("potholes_in_view").Inc()
				return rows, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("potholes_in_view").Inc()
	}

	rows, err := s.potholes.InView(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("potholes in view: %w", err)
	}
	if rows == nil {
		rows = []domain.PotholeSummary{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(rows); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, inViewCacheTTL)
		}
	}

	return rows, nil
}

// Near returns potholes within radiusMeters of p, closest first.
func (s *PotholeService) Near(ctx context.Context, p domain.GeoPoint, radiusMeters float64) ([]domain.PotholeSummary, error) {
	rows, err := s.InView(ctx, geospatial.Around(p, radiusMeters))
	if err != nil {
		return nil, err
	}

	near := make([]domain.PotholeSummary, 0, len(rows))
	dist := make(map[int64]float64, len(rows))
	for _, r := range rows {
		d := geospatial.Distance(p, domain.GeoPoint{Lat: r.Lat, Long: r.Long})
		if d <= radiusMeters {
			near = append(near, r)
			dist[r.ID] = d
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return dist[near[i].ID] < dist[near[j].ID] })
	return near, nil
}

// GetByID returns a single pothole.
func (s *PotholeService) GetByID(ctx context.Context, id int64) (*domain.Pothole, error) {
	p, err := s.potholes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get pothole %d: %w", id, err)
	}
	return p, nil
}

// Delete removes a pothole and its image rows, then announces the deletion so
// the image objects can be removed from storage. Returns domain.ErrNotFound
// when the pothole does not exist.
func (s *PotholeService) Delete(ctx context.Context, id int64) error {
	p, err := s.potholes.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get pothole %d: %w", id, err)
	}

	imageIDs, err := s.images.IDsByPothole(ctx, id)
	if err != nil {
		return fmt.Errorf("list images of pothole %d: %w", id, err)
	}

	if err := s.potholes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete pothole %d: %w", id, err)
	}
	invalidateInView(ctx, s.cache)

	if s.publisher != nil {
		event := &domain.PotholeEvent{
			Kind:      domain.EventPotholeDeleted,
			PotholeID: id,
			Location:  p.Location,
			ImageIDs:  imageIDs,
			Time:      time.Now().UTC(),
		}
		if err := s.publisher.PublishPotholeEvent(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish delete event failed", "pothole_id", id, "error", err)
		}
	}
	return nil
}

// PurgeExpired deletes up to limit potholes whose expiry is before now.
func (s *PotholeService) PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := s.potholes.DeleteExpired(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired potholes: %w", err)
	}
	if len(ids) > 0 {
		invalidateInView(ctx, s.cache)
	}
	metrics.MaintenancePurged.WithLabelValues("potholes").Add(float64(len(ids)))
	return len(ids), nil
}
