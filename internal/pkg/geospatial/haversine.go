package geospatial

import (
	"math"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

const earthRadiusMeters = 6371008.8

// Distance returns the great-circle distance in meters between two points.
func Distance(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLong := toRad(b.Long - a.Long)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLong/2)*math.Sin(dLong/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Around returns a bounding box enclosing a circle of radiusMeters around p,
// clamped to valid coordinate ranges.
func Around(p domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	longDelta := 180.0
	if c := math.Cos(toRad(p.Lat)); c > 1e-9 {
		longDelta = math.Min(radiusMeters/(111320.0*c), 180)
	}

	return domain.Bounds{
		MinLat:  math.Max(p.Lat-latDelta, -90),
		MinLong: math.Max(p.Long-longDelta, -180),
		MaxLat:  math.Min(p.Lat+latDelta, 90),
		MaxLong: math.Min(p.Long+longDelta, 180),
	}
}

// Contains reports whether p lies inside b (edges included).
func Contains(b domain.Bounds, p domain.GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Long >= b.MinLong && p.Long <= b.MaxLong
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
