package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
	"github.com/aipothole/pothole-api/internal/pkg/telemetry"
)

// Decision is what the report policy does with a proximity result.
type Decision int

const (
	DecisionFail Decision = iota
	DecisionCreate
	DecisionMerge
)

func (d Decision) String() string {
	switch d {
	case DecisionCreate:
		return "create"
	case DecisionMerge:
		return "merge"
	default:
		return "fail"
	}
}

// DecideReport maps a proximity result to a decision. A pothole exactly at
// the threshold is merged.
func DecideReport(r domain.ProximityResult, thresholdMeters float64) Decision {
	switch r.Status {
	case domain.ProximityFound:
		if r.DistanceMeters <= thresholdMeters {
			return DecisionMerge
		}
		return DecisionCreate
	case domain.ProximityNotFound:
		return DecisionCreate
	default:
		return DecisionFail
	}
}

// Outcome tags a successful report.
type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeMerged
)

func (o Outcome) String() string {
	if o == OutcomeMerged {
		return "merged"
	}
	return "created"
}

// ReportResult is the pothole a report created or merged into.
type ReportResult struct {
	Outcome Outcome
	Pothole *domain.Pothole
}

// ReportService implements the report-or-merge policy.
type ReportService struct {
	gateway   *ProximityGateway
	potholes  ports.PotholeRepository
	geocoder  ports.Geocoder
	publisher ports.EventPublisher
	cache     ports.CacheService
	threshold float64
}

// NewReportService creates a new ReportService. geocoder and publisher may be nil.
func NewReportService(
	potholes ports.PotholeRepository,
	geocoder ports.Geocoder,
	publisher ports.EventPublisher,
	mergeThresholdMeters float64,
) *ReportService {
	return &ReportService{
		gateway:   NewProximityGateway(potholes),
		potholes:  potholes,
		geocoder:  geocoder,
		publisher: publisher,
		threshold: mergeThresholdMeters,
	}
}

// WithViewCache makes successful reports invalidate the in-view cache that
// PotholeService reads through.
func (s *ReportService) WithViewCache(cache ports.CacheService) *ReportService {
	s.cache = cache
	return s
}

// Report records a sighting at (lat, long): either a new pothole is created
// or the closest one within the merge threshold has its report count bumped.
func (s *ReportService) Report(ctx context.Context, lat, long float64) (*ReportResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanReport)
	defer span.End()

	res, err := s.report(ctx, lat, long)
	if err != nil {
		metrics.ReportOutcomes.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "report failed")
		return nil, err
	}

	metrics.ReportOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	span.SetAttributes(
		attribute.String(telemetry.AttrOutcome, res.Outcome.String()),
		attribute.Int64(telemetry.AttrPotholeID, res.Pothole.ID),
	)
	invalidateInView(ctx, s.cache)
	s.publish(ctx, res)
	return res, nil
}

func (s *ReportService) report(ctx context.Context, lat, long float64) (*ReportResult, error) {
	closest := s.gateway.FindClosest(ctx, lat, long)

	switch DecideReport(closest, s.threshold) {
	case DecisionMerge:
		if err := s.gateway.IncrementReportCount(ctx, closest.PotholeID); err != nil {
			return nil, err
		}
		p, err := s.potholes.GetByID(ctx, closest.PotholeID)
		if err != nil {
			// The increment is committed; the outcome stays Merged.
			slog.WarnContext(ctx, "re-fetch after increment failed", "pothole_id", closest.PotholeID, "error", err)
			p = &domain.Pothole{ID: closest.PotholeID}
		}
		return &ReportResult{Outcome: OutcomeMerged, Pothole: p}, nil

	case DecisionCreate:
		p, err := s.gateway.CreatePothole(ctx, lat, long, s.reverseGeocode(ctx, lat, long))
		if err != nil {
			return nil, err
		}
		return &ReportResult{Outcome: OutcomeCreated, Pothole: p}, nil

	default:
		return nil, proximityErr(closest)
	}
}

// reverseGeocode is best effort: failures yield an empty address.
func (s *ReportService) reverseGeocode(ctx context.Context, lat, long float64) domain.Address {
	if s.geocoder == nil {
		return domain.Address{}
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanReverseGeo)
	defer span.End()

	addr, err := s.geocoder.ReverseGeocode(ctx, lat, long)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		span.RecordError(err)
		slog.WarnContext(ctx, "reverse geocode failed", "lat", lat, "long", long, "error", err)
		return domain.Address{}
	}
	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	return addr
}

func (s *ReportService) publish(ctx context.Context, res *ReportResult) {
	if s.publisher == nil {
		return
	}
	kind := domain.EventPotholeCreated
	if res.Outcome == OutcomeMerged {
		kind = domain.EventPotholeMerged
	}
	event := &domain.PotholeEvent{
		Kind:      kind,
		PotholeID: res.Pothole.ID,
		Location:  res.Pothole.Location,
		Reports:   res.Pothole.Reports,
		Time:      time.Now().UTC(),
	}
	if err := s.publisher.PublishPotholeEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish pothole event failed", "kind", kind, "pothole_id", event.PotholeID, "error", err)
	}
}

// ErrProximityUnavailable is returned when the closest-pothole lookup failed
// without an underlying error.
var ErrProximityUnavailable = errors.New("proximity lookup unavailable")

func proximityErr(r domain.ProximityResult) error {
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("%w: status %s", ErrProximityUnavailable, r.Status)
}
