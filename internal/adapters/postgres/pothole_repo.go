package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// PotholeRepo implements ports.PotholeRepository with pgx.
type PotholeRepo struct {
	db *DB
}

// NewPotholeRepo creates a new PotholeRepo.
func NewPotholeRepo(db *DB) *PotholeRepo {
	return &PotholeRepo{db: db}
}

// NearbyPotholes calls nearby_potholes(lat, long).
func (r *PotholeRepo) NearbyPotholes(ctx context.Context, lat, long float64) ([]domain.NearbyPothole, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, dist_meters FROM nearby_potholes($1, $2)`, lat, long)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NearbyPothole
	for rows.Next() {
		var n domain.NearbyPothole
		if err := rows.Scan(&n.ID, &n.DistanceMeters); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Increment calls increment(id_to_increment).
func (r *PotholeRepo) Increment(ctx context.Context, id int64) error {
	var reports *int32
	if err := r.db.Pool.QueryRow(ctx, `SELECT increment($1)`, id).Scan(&reports); err != nil {
		return err
	}
	if reports == nil {
		return domain.ErrNotFound
	}
	return nil
}

// Create inserts a pothole with one report. Points are stored longitude first.
func (r *PotholeRepo) Create(ctx context.Context, loc domain.GeoPoint, addr domain.Address) (*domain.Pothole, error) {
	p := domain.Pothole{
		Location: loc,
		Street:   addr.Street,
		City:     addr.City,
		County:   addr.County,
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO potholes (location, street, city, county)
		VALUES (ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id, reports, created_at, last_reported_at, expires_at
	`, loc.Long, loc.Lat, addr.Street, addr.City, addr.County).Scan(
		&p.ID, &p.Reports, &p.CreatedAt, &p.LastReportedAt, &p.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a pothole or domain.ErrNotFound.
func (r *PotholeRepo) GetByID(ctx context.Context, id int64) (*domain.Pothole, error) {
	var p domain.Pothole
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS long,
		       reports,
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(county, ''),
		       created_at, last_reported_at, expires_at
		FROM potholes WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Location.Lat, &p.Location.Long, &p.Reports,
		&p.Street, &p.City, &p.County,
		&p.CreatedAt, &p.LastReportedAt, &p.ExpiresAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// InView calls potholes_in_view(min_lat, min_long, max_lat, max_long).
func (r *PotholeRepo) InView(ctx context.Context, b domain.Bounds) ([]domain.PotholeSummary, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, lat, long, reports FROM potholes_in_view($1, $2, $3, $4)`,
		b.MinLat, b.MinLong, b.MaxLat, b.MaxLong,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PotholeSummary
	for rows.Next() {
		var s domain.PotholeSummary
		if err := rows.Scan(&s.ID, &s.Lat, &s.Long, &s.Reports); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a pothole. Its image rows cascade.
func (r *PotholeRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM potholes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpired removes up to limit potholes that expired before the given time,
// oldest first, and returns their ids.
func (r *PotholeRepo) DeleteExpired(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		DELETE FROM potholes
		WHERE id IN (
			SELECT id FROM potholes
			WHERE expires_at < $1
			ORDER BY expires_at
			LIMIT $2
		)
		RETURNING id
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("delete expired: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
