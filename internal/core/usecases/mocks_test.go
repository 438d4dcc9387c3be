package usecases_test

import (
	"context"
	"errors"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// --- Mock PotholeRepository ---

type mockPotholeRepo struct {
	nearbyFn        func(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error)
	incrementFn     func(ctx context.Context, id int64) error
	createFn        func(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.Pothole, error)
	inViewFn        func(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error)
	deleteFn        func(ctx context.Context, id int64) error
	deleteExpiredFn func(ctx context.Context, before time.Time, limit int) ([]int64, error)
}

func (m *mockPotholeRepo) NearbyPotholes(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, lat, long)
	}
	return nil, nil
}

func (m *mockPotholeRepo) Increment(ctx context.Context, id int64) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return nil
}

func (m *mockPotholeRepo) Create(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
	if m.createFn != nil {
		return m.createFn(ctx, loc, addr)
	}
	return &domain.Pothole{ID: 1, Location: loc, Reports: 1, Street: addr.Street, City: addr.City, County: addr.County}, nil
}

func (m *mockPotholeRepo) GetByID(ctx context.Context, id int64) (*domain.Pothole, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPotholeRepo) InView(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error) {
	if m.inViewFn != nil {
		return m.inViewFn(ctx, b)
	}
	return nil, nil
}

func (m *mockPotholeRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPotholeRepo) DeleteExpired(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, before, limit)
	}
	return nil, nil
}

// --- Mock ImageRepository ---

type mockImageRepo struct {
	createFn        func(ctx context.Context, potholeID int64) (*domain.Image, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.Image, error)
	listByPotholeFn func(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error)
	idsByPotholeFn  func(ctx context.Context, potholeID int64) ([]int64, error)
	existsFn        func(ctx context.Context, ids []int64) (map[int64]bool, error)
}

func (m *mockImageRepo) Create(ctx context.Context, potholeID int64) (*domain.Image, error) {
	if m.createFn != nil {
		return m.createFn(ctx, potholeID)
	}
	return &domain.Image{ID: 1, PotholeID: potholeID}, nil
}

func (m *mockImageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockImageRepo) ListByPothole(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error) {
	if m.listByPotholeFn != nil {
		return m.listByPotholeFn(ctx, potholeID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockImageRepo) IDsByPothole(ctx context.Context, potholeID int64) ([]int64, error) {
	if m.idsByPotholeFn != nil {
		return m.idsByPotholeFn(ctx, potholeID)
	}
	return nil, nil
}

func (m *mockImageRepo) Exists(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, ids)
	}
	return map[int64]bool{}, nil
}

// --- Mock ObjectStore ---

type mockStore struct {
	uploadFn func(ctx context.Context, key, contentType string, data []byte) error
	deleteFn func(ctx context.Context, keys []string) error
	listFn   func(ctx context.Context, prefix string, offset, limit int) ([]string, error)
}

func (m *mockStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, contentType, data)
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, keys []string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, keys)
	}
	return nil
}

func (m *mockStore) List(ctx context.Context, prefix string, offset, limit int) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, prefix, offset, limit)
	}
	return nil, nil
}

func (m *mockStore) PublicURL(key string) string {
	return "https://storage.test/public/" + key
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	potholeEvents []*domain.PotholeEvent
	imageEvents   []*domain.ImageEvent
	err           error
}

func (m *mockPublisher) PublishPotholeEvent(ctx context.Context, e *domain.PotholeEvent) error {
	m.potholeEvents = append(m.potholeEvents, e)
	return m.err
}

func (m *mockPublisher) PublishImageEvent(ctx context.Context, e *domain.ImageEvent) error {
	m.imageEvents = append(m.imageEvents, e)
	return m.err
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	calls int
	addr  domain.Address
	err   error
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, long float64) (domain.Address, error) {
	m.calls++
	return m.addr, m.err
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

var errUpstream = errors.New("upstream unavailable")
