package ports

import (
	"context"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPotholeEvent(ctx context.Context, event *domain.PotholeEvent) error
	PublishImageEvent(ctx context.Context, event *domain.ImageEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePotholeEvents(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.PotholeEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves a coordinate to a street address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, long float64) (domain.Address, error)
}

// ObjectStore stores image binaries in a bucket.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, keys []string) error
	List(ctx context.Context, prefix string, offset, limit int) ([]string, error)
	PublicURL(key string) string
}
