package geocoding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
)

// Cached wraps a Geocoder with a read-through cache keyed by coordinates
// rounded to five decimals (about one meter).
type Cached struct {
	next  ports.Geocoder
	cache ports.CacheService
	ttl   int
}

// NewCached creates a caching geocoder. ttlSeconds <= 0 defaults to one day.
func NewCached(next ports.Geocoder, cache ports.CacheService, ttlSeconds int) *Cached {
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	return &Cached{next: next, cache: cache, ttl: ttlSeconds}
}

// CacheKey is the cache key of a coordinate.
func CacheKey(lat, long float64) string {
	return fmt.Sprintf("geocode:%.5f:%.5f", lat, long)
}

func (c *Cached) ReverseGeocode(ctx context.Context, lat, long float64) (domain.Address, error) {
	key := CacheKey(lat, long)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var addr domain.Address
		if err := json.Unmarshal(data, &addr); err == nil {
			metrics.CacheHits.WithLabelValues("reverse_geocode").Inc()
			return addr, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("reverse_geocode").Inc()

	addr, err := c.next.ReverseGeocode(ctx, lat, long)
	if err != nil {
		return domain.Address{}, err
	}

	// Empty answers are not cached; the next report retries.
	if !addr.IsZero() {
		if data, err := json.Marshal(addr); err == nil {
			_ = c.cache.Set(ctx, key, data, c.ttl)
		}
	}
	return addr, nil
}
