package http_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/pkg/geospatial"
)

var errUpstream = errors.New("connection refused")

// ---- In-memory pothole repository ----

// memPotholes mimics the PostGIS functions closely enough to drive the
// report-or-merge flow end to end. Function fields override single calls.
type memPotholes struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Pothole

	nearbyFn func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error)
	deleteFn func(ctx context.Context, id int64) error
	getFn    func(ctx context.Context, id int64) (*domain.Pothole, error)
}

func newMemPotholes(seed ...domain.Pothole) *memPotholes {
	m := &memPotholes{rows: map[int64]*domain.Pothole{}}
	for i := range seed {
		p := seed[i]
		m.rows[p.ID] = &p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *memPotholes) NearbyPotholes(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, lat, long)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	here := domain.GeoPoint{Lat: lat, Long: long}
	var out []domain.NearbyPothole
	for id, p := range m.rows {
		out = append(out, domain.NearbyPothole{ID: id, DistanceMeters: geospatial.Distance(here, p.Location)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

func (m *memPotholes) Increment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.rows[id]
	if !found {
		return domain.ErrNotFound
	}
	p.Reports++
	p.LastReportedAt = time.Now()
	return nil
}

func (m *memPotholes) Create(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now()
	p := &domain.Pothole{
		ID: m.nextID, Location: loc, Reports: 1,
		Street: addr.Street, City: addr.City, County: addr.County,
		CreatedAt: now, LastReportedAt: now, ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
	m.rows[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memPotholes) GetByID(ctx context.Context, id int64) (*domain.Pothole, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.rows[id]
	if !found {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPotholes) InView(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PotholeSummary
	for _, p := range m.rows {
		if geospatial.Contains(b, p.Location) {
			out = append(out, domain.PotholeSummary{ID: p.ID, Lat: p.Location.Lat, Long: p.Location.Long, Reports: p.Reports})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPotholes) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.rows[id]; !found {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memPotholes) DeleteExpired(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	return nil, nil
}

// ---- Mock ImageRepository ----

type mockImageRepo struct {
	createFn func(ctx context.Context, potholeID int64) (*domain.Image, error)
	getFn    func(ctx context.Context, id int64) (*domain.Image, error)
	listFn   func(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error)
	created  int
}

func (m *mockImageRepo) Create(ctx context.Context, potholeID int64) (*domain.Image, error) {
	m.created++
	if m.createFn != nil {
		return m.createFn(ctx, potholeID)
	}
	return &domain.Image{ID: 77, PotholeID: potholeID, CreatedAt: time.Now()}, nil
}

func (m *mockImageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockImageRepo) ListByPothole(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, potholeID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockImageRepo) IDsByPothole(ctx context.Context, potholeID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockImageRepo) Exists(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

// ---- Mock ObjectStore ----

type mockStore struct {
	uploadFn func(ctx context.Context, key, contentType string, data []byte) error
	uploaded []string
}

func (m *mockStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, contentType, data)
	}
	m.uploaded = append(m.uploaded, key)
	return nil
}

func (m *mockStore) Delete(ctx context.Context, keys []string) error { return nil }

func (m *mockStore) List(ctx context.Context, prefix string, offset, limit int) ([]string, error) {
	return nil, nil
}

func (m *mockStore) PublicURL(key string) string {
	return "https://storage.test/public/" + key
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
