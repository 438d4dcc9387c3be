package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/usecases"
)

func TestDecideReport(t *testing.T) {
	const threshold = 150.0
	tests := []struct {
		name   string
		result domain.ProximityResult
		want   usecases.Decision
	}{
		{"failure", domain.ProximityFailed(errUpstream), usecases.DecisionFail},
		{"not found", domain.ProximityNone(), usecases.DecisionCreate},
		{"within threshold", domain.ProximityAt(1, 10), usecases.DecisionMerge},
		{"exactly at threshold merges", domain.ProximityAt(1, threshold), usecases.DecisionMerge},
		{"beyond threshold", domain.ProximityAt(1, threshold+0.001), usecases.DecisionCreate},
		{"zero distance", domain.ProximityAt(1, 0), usecases.DecisionMerge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usecases.DecideReport(tt.result, threshold); got != tt.want {
				t.Errorf("DecideReport = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReportService_NoPotholes_Creates(t *testing.T) {
	geo := &mockGeocoder{addr: domain.Address{Street: "Broadway", City: "New York", County: "New York County"}}
	pub := &mockPublisher{}
	var created domain.GeoPoint
	repo := &mockPotholeRepo{
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			created = loc
			return &domain.Pothole{ID: 1, Location: loc, Reports: 1, Street: addr.Street, City: addr.City, County: addr.County}, nil
		},
	}

	svc := usecases.NewReportService(repo, geo, pub, 150)
	res, err := svc.Report(context.Background(), 40.7128, -74.006)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != usecases.OutcomeCreated {
		t.Fatalf("outcome = %s, want created", res.Outcome)
	}
	if created.Lat != 40.7128 || created.Long != -74.006 {
		t.Errorf("created at %+v", created)
	}
	if res.Pothole.Street != "Broadway" || res.Pothole.County != "New York County" {
		t.Errorf("address not applied: %+v", res.Pothole)
	}
	if geo.calls != 1 {
		t.Errorf("geocoder called %d times, want 1", geo.calls)
	}
	if len(pub.potholeEvents) != 1 || pub.potholeEvents[0].Kind != domain.EventPotholeCreated {
		t.Errorf("unexpected events: %+v", pub.potholeEvents)
	}
}

func TestReportService_Nearby_Merges(t *testing.T) {
	geo := &mockGeocoder{}
	incremented := int64(0)
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return []domain.NearbyPothole{{ID: 5, DistanceMeters: 20}}, nil
		},
		incrementFn: func(ctx context.Context, id int64) error {
			incremented = id
			return nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*domain.Pothole, error) {
			return &domain.Pothole{ID: id, Reports: 2}, nil
		},
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			t.Fatal("create must not be called on merge")
			return nil, nil
		},
	}

	res, err := usecases.NewReportService(repo, geo, nil, 150).Report(context.Background(), 40.7128, -74.006)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != usecases.OutcomeMerged || res.Pothole.ID != 5 {
		t.Fatalf("got %s pothole %d, want merged 5", res.Outcome, res.Pothole.ID)
	}
	if incremented != 5 {
		t.Errorf("incremented %d, want 5", incremented)
	}
	if res.Pothole.Reports != 2 {
		t.Errorf("reports = %d, want post-increment value 2", res.Pothole.Reports)
	}
	if geo.calls != 0 {
		t.Error("geocoder must not run on merge")
	}
}

func TestReportService_BoundaryDistance_Merges(t *testing.T) {
	merged := false
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return []domain.NearbyPothole{{ID: 8, DistanceMeters: 150}}, nil
		},
		incrementFn: func(ctx context.Context, id int64) error {
			merged = true
			return nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*domain.Pothole, error) {
			return &domain.Pothole{ID: id, Reports: 3}, nil
		},
	}

	res, err := usecases.NewReportService(repo, nil, nil, 150).Report(context.Background(), 1, 1)
	if err != nil || res.Outcome != usecases.OutcomeMerged || !merged {
		t.Fatalf("expected merge at boundary, got %+v err=%v", res, err)
	}
}

func TestReportService_Create_InvalidatesInView(t *testing.T) {
	var stored []domain.PotholeSummary
	repo := &mockPotholeRepo{
		inViewFn: func(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error) {
			return stored, nil
		},
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			stored = append(stored, domain.PotholeSummary{ID: 9, Lat: loc.Lat, Long: loc.Long, Reports: 1})
			return &domain.Pothole{ID: 9, Location: loc, Reports: 1}, nil
		},
	}
	cache := newMockCache()
	potholes := usecases.NewPotholeService(repo, &mockImageRepo{}, cache, nil)
	reports := usecases.NewReportService(repo, nil, nil, 150).WithViewCache(cache)
	ctx := context.Background()
	box := domain.Bounds{MaxLat: 1, MaxLong: 1}

	if got, _ := potholes.InView(ctx, box); len(got) != 0 {
		t.Fatalf("expected empty view, got %+v", got)
	}
	if _, err := reports.Report(ctx, 0.5, 0.5); err != nil {
		t.Fatalf("report: %v", err)
	}
	if got, _ := potholes.InView(ctx, box); len(got) != 1 || got[0].ID != 9 {
		t.Errorf("new pothole missing from view: %+v", got)
	}
}

func TestReportService_FarPothole_Creates(t *testing.T) {
	created := false
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return []domain.NearbyPothole{{ID: 8, DistanceMeters: 150.5}}, nil
		},
		incrementFn: func(ctx context.Context, id int64) error {
			t.Fatal("increment must not be called")
			return nil
		},
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			created = true
			return &domain.Pothole{ID: 9, Location: loc, Reports: 1}, nil
		},
	}

	res, err := usecases.NewReportService(repo, nil, nil, 150).Report(context.Background(), 1, 1)
	if err != nil || res.Outcome != usecases.OutcomeCreated || !created {
		t.Fatalf("expected create, got %+v err=%v", res, err)
	}
}

// A failed lookup must never fall through to creation.
func TestReportService_LookupFailure_NoSideEffects(t *testing.T) {
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return nil, errUpstream
		},
		incrementFn: func(ctx context.Context, id int64) error {
			t.Fatal("increment must not be called")
			return nil
		},
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			t.Fatal("create must not be called")
			return nil, nil
		},
	}
	pub := &mockPublisher{}

	_, err := usecases.NewReportService(repo, nil, pub, 150).Report(context.Background(), 1, 1)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(pub.potholeEvents) != 0 {
		t.Error("no event may be published on failure")
	}
}

func TestReportService_IncrementFailure(t *testing.T) {
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return []domain.NearbyPothole{{ID: 2, DistanceMeters: 1}}, nil
		},
		incrementFn: func(ctx context.Context, id int64) error { return errUpstream },
	}
	if _, err := usecases.NewReportService(repo, nil, nil, 150).Report(context.Background(), 1, 1); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestReportService_CreateFailure(t *testing.T) {
	repo := &mockPotholeRepo{
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			return nil, errUpstream
		},
	}
	if _, err := usecases.NewReportService(repo, nil, nil, 150).Report(context.Background(), 1, 1); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestReportService_RefetchFailure_StillMerged(t *testing.T) {
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			return []domain.NearbyPothole{{ID: 4, DistanceMeters: 3}}, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*domain.Pothole, error) {
			return nil, errUpstream
		},
	}
	res, err := usecases.NewReportService(repo, nil, nil, 150).Report(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != usecases.OutcomeMerged || res.Pothole.ID != 4 {
		t.Errorf("got %+v, want merged with id 4", res)
	}
}

func TestReportService_GeocodeFailure_StillCreates(t *testing.T) {
	geo := &mockGeocoder{err: errUpstream}
	var gotAddr domain.Address
	repo := &mockPotholeRepo{
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			gotAddr = addr
			return &domain.Pothole{ID: 1, Location: loc, Reports: 1}, nil
		},
	}

	res, err := usecases.NewReportService(repo, geo, nil, 150).Report(context.Background(), 1, 1)
	if err != nil || res.Outcome != usecases.OutcomeCreated {
		t.Fatalf("expected created despite geocode failure, got %+v err=%v", res, err)
	}
	if !gotAddr.IsZero() {
		t.Errorf("expected empty address, got %+v", gotAddr)
	}
}

func TestReportService_PublishFailureIgnored(t *testing.T) {
	pub := &mockPublisher{err: errUpstream}
	res, err := usecases.NewReportService(&mockPotholeRepo{}, nil, pub, 150).Report(context.Background(), 1, 1)
	if err != nil || res.Outcome != usecases.OutcomeCreated {
		t.Fatalf("publish failure must not fail the report: %+v err=%v", res, err)
	}
}
