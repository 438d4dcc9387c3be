package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"googlemaps.github.io/maps"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// Component types read from the first geocoding result.
const (
	typeStreet = "route"
	typeCity   = "locality"
	typeCounty = "administrative_area_level_2"
)

// Google implements ports.Geocoder with the Google Geocoding API.
type Google struct {
	client *maps.Client
}

// NewGoogle creates a Google geocoder. baseURL overrides the API host when non-empty.
func NewGoogle(apiKey, baseURL string) (*Google, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}
	return &Google{client: client}, nil
}

// ReverseGeocode resolves street, city and county of a coordinate.
func (g *Google) ReverseGeocode(ctx context.Context, lat, long float64) (domain.Address, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: long},
	})
	if err != nil {
		return domain.Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return domain.Address{}, nil
	}
	return addressFrom(results[0].AddressComponents), nil
}

// addressFrom picks components by type. Results whose components carry no
// types at all fall back to positions 1, 2 and 3 (street, city, county).
func addressFrom(components []maps.AddressComponent) domain.Address {
	if !typed(components) {
		return domain.Address{
			Street: atIndex(components, 1),
			City:   atIndex(components, 2),
			County: atIndex(components, 3),
		}
	}
	return domain.Address{
		Street: byType(components, typeStreet),
		City:   byType(components, typeCity),
		County: byType(components, typeCounty),
	}
}

func typed(components []maps.AddressComponent) bool {
	for _, c := range components {
		if len(c.Types) > 0 {
			return true
		}
	}
	return false
}

func byType(components []maps.AddressComponent, want string) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == want {
				return c.LongName
			}
		}
	}
	return ""
}

func atIndex(components []maps.AddressComponent, i int) string {
	if i < len(components) {
		return components[i].LongName
	}
	return ""
}
