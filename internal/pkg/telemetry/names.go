package telemetry

// Span names used for instrumentation.
const (
	SpanReport      = "potholes.report"
	SpanAlert       = "potholes.alert"
	SpanFindClosest = "potholes.find_closest"
	SpanReverseGeo  = "potholes.reverse_geocode"
	SpanImageCreate = "images.create"
	SpanMaintenance = "maintenance.run"
)

// Span attribute keys.
const (
	AttrPotholeID = "pothole.id"
	AttrOutcome   = "report.outcome"
	AttrDistance  = "proximity.distance_meters"
	AttrProximity = "proximity.status"
	AttrImageID   = "image.id"
)

// TracerName is the instrumentation scope of every span this service opens.
const TracerName = "github.com/aipothole/pothole-api"
