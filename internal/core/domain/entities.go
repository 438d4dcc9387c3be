package domain

import (
	"strconv"
	"time"
)

// Pothole is a deduplicated road-defect record. Reports merged into it bump
// Reports and LastReportedAt; address fields are set once, at creation.
type Pothole struct {
	ID             int64     `json:"id"`
	Location       GeoPoint  `json:"location"`
	Reports        int       `json:"reports"`
	Street         string    `json:"street,omitempty"`
	City           string    `json:"city,omitempty"`
	County         string    `json:"county,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastReportedAt time.Time `json:"lastReportedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// PotholeSummary is a row of the potholes_in_view function.
type PotholeSummary struct {
	ID      int64   `json:"id"`
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	Reports int     `json:"reports"`
}

// NearbyPothole is a row of the nearby_potholes function.
type NearbyPothole struct {
	ID             int64
	DistanceMeters float64
}

// Address holds the reverse-geocoded descriptive fields of a pothole.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`
}

// IsZero reports whether no component was resolved.
func (a Address) IsZero() bool {
	return a.Street == "" && a.City == "" && a.County == ""
}

// Image is photo evidence attached to a pothole. URL is derived from the ID
// and never persisted.
type Image struct {
	ID        int64     `json:"id"`
	PotholeID int64     `json:"potholeId"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

// ImageObjectKey is the object-storage key holding the binary content of an image.
func ImageObjectKey(id int64) string {
	return strconv.FormatInt(id, 10) + ".png"
}

// Event kinds published on the message broker.
const (
	EventPotholeCreated    = "created"
	EventPotholeMerged     = "merged"
	EventPotholeDeleted    = "deleted"
	EventImageCreated      = "image_created"
	EventImageUploadFailed = "image_upload_failed"
)

// PotholeEvent describes a change to a pothole.
type PotholeEvent struct {
	Kind      string    `json:"kind"`
	PotholeID int64     `json:"pothole_id"`
	Location  GeoPoint  `json:"location"`
	Reports   int       `json:"reports,omitempty"`
	ImageIDs  []int64   `json:"image_ids,omitempty"`
	Time      time.Time `json:"time"`
}

// ImageEvent describes a change to an image.
type ImageEvent struct {
	Kind      string    `json:"kind"`
	ImageID   int64     `json:"image_id"`
	PotholeID int64     `json:"pothole_id"`
	Time      time.Time `json:"time"`
}
