package domain

// ProximityStatus tags the outcome of a nearest-pothole lookup.
type ProximityStatus int

const (
	// ProximityFailure means the lookup itself failed; nothing is known.
	ProximityFailure ProximityStatus = iota
	// ProximityNotFound means the lookup succeeded and no pothole exists.
	ProximityNotFound
	// ProximityFound means the closest pothole was returned.
	ProximityFound
)

func (s ProximityStatus) String() string {
	switch s {
	case ProximityNotFound:
		return "not_found"
	case ProximityFound:
		return "found"
	default:
		return "failure"
	}
}

// ProximityResult is the three-state result of a nearest-pothole lookup.
// PotholeID and DistanceMeters are only meaningful when Status is ProximityFound;
// Err is only set when Status is ProximityFailure.
type ProximityResult struct {
	Status         ProximityStatus
	PotholeID      int64
	DistanceMeters float64
	Err            error
}

// ProximityFailed builds a Failure result.
func ProximityFailed(err error) ProximityResult {
	return ProximityResult{Status: ProximityFailure, Err: err}
}

// ProximityNone builds a NotFound result.
func ProximityNone() ProximityResult {
	return ProximityResult{Status: ProximityNotFound}
}

// ProximityAt builds a Found result.
func ProximityAt(id int64, distanceMeters float64) ProximityResult {
	return ProximityResult{Status: ProximityFound, PotholeID: id, DistanceMeters: distanceMeters}
}
