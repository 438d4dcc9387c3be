package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/usecases"
)

// The three lookup outcomes must stay distinguishable: a failed lookup is
// never reported as "no pothole".
func TestProximityGateway_FindClosest_Branches(t *testing.T) {
	tests := []struct {
		name     string
		rows     []domain.NearbyPothole
		err      error
		want     domain.ProximityStatus
		wantID   int64
		wantDist float64
	}{
		{name: "failure", err: errUpstream, want: domain.ProximityFailure},
		{name: "not found", rows: nil, want: domain.ProximityNotFound},
		{name: "empty slice", rows: []domain.NearbyPothole{}, want: domain.ProximityNotFound},
		{
			name:     "found takes first row",
			rows:     []domain.NearbyPothole{{ID: 7, DistanceMeters: 42.5}, {ID: 9, DistanceMeters: 80}},
			want:     domain.ProximityFound,
			wantID:   7,
			wantDist: 42.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPotholeRepo{
				nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
					return tt.rows, tt.err
				},
			}
			got := usecases.NewProximityGateway(repo).FindClosest(context.Background(), 40.7, -74)

			if got.Status != tt.want {
				t.Fatalf("status = %s, want %s", got.Status, tt.want)
			}
			if tt.want == domain.ProximityFailure && !errors.Is(got.Err, errUpstream) {
				t.Errorf("failure does not wrap upstream error: %v", got.Err)
			}
			if tt.want == domain.ProximityFound && (got.PotholeID != tt.wantID || got.DistanceMeters != tt.wantDist) {
				t.Errorf("found = (%d, %v), want (%d, %v)", got.PotholeID, got.DistanceMeters, tt.wantID, tt.wantDist)
			}
		})
	}
}

func TestProximityGateway_FindClosest_PassesCoordinates(t *testing.T) {
	var gotLat, gotLong float64
	repo := &mockPotholeRepo{
		nearbyFn: func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
			gotLat, gotLong = lat, long
			return nil, nil
		},
	}
	usecases.NewProximityGateway(repo).FindClosest(context.Background(), 40.7128, -74.006)

	if gotLat != 40.7128 || gotLong != -74.006 {
		t.Errorf("lookup got (%v, %v), want (40.7128, -74.006)", gotLat, gotLong)
	}
}

func TestProximityGateway_IncrementFailureWraps(t *testing.T) {
	repo := &mockPotholeRepo{
		incrementFn: func(ctx context.Context, id int64) error { return errUpstream },
	}
	err := usecases.NewProximityGateway(repo).IncrementReportCount(context.Background(), 3)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestProximityGateway_CreatePothole(t *testing.T) {
	var gotLoc domain.GeoPoint
	repo := &mockPotholeRepo{
		createFn: func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
			gotLoc = loc
			return &domain.Pothole{ID: 11, Location: loc, Reports: 1}, nil
		},
	}
	p, err := usecases.NewProximityGateway(repo).CreatePothole(context.Background(), 40.7, -74.0, domain.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 11 || gotLoc.Lat != 40.7 || gotLoc.Long != -74.0 {
		t.Errorf("unexpected pothole %+v at %+v", p, gotLoc)
	}
}
