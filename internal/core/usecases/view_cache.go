package usecases

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
)

const (
	inViewCacheTTL = 15

	// inViewGenKey holds the current generation of in-view entries. Writes
	// move it forward so older entries are never read again.
	inViewGenKey = "potholes:view:gen"
	inViewGenTTL = 24 * 60 * 60
)

// inViewKey builds the cache key of a bounding box from the exact bounds.
func inViewKey(ctx context.Context, cache ports.CacheService, b domain.Bounds) string {
	gen := "0"
	if data, err := cache.Get(ctx, inViewGenKey); err == nil && len(data) > 0 {
		gen = string(data)
	}

	var sb strings.Builder
	sb.WriteString("potholes:view:")
	sb.WriteString(gen)
	for _, v := range [4]float64{b.MinLat, b.MinLong, b.MaxLat, b.MaxLong} {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}

// invalidateInView starts a new generation of in-view entries. cache may be nil.
func invalidateInView(ctx context.Context, cache ports.CacheService) {
	if cache == nil {
		return
	}
	gen := strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := cache.Set(ctx, inViewGenKey, []byte(gen), inViewGenTTL); err != nil {
		slog.WarnContext(ctx, "invalidate in-view cache failed", "error", err)
	}
}
