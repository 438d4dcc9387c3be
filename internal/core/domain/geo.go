package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat  float64 `json:"minLat"`
	MinLong float64 `json:"minLong"`
	MaxLat  float64 `json:"maxLat"`
	MaxLong float64 `json:"maxLong"`
}
