package postgres

import (
	"context"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// ImageRepo implements ports.ImageRepository with pgx.
type ImageRepo struct {
	db *DB
}

// NewImageRepo creates a new ImageRepo.
func NewImageRepo(db *DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// Create inserts an image row for a pothole.
func (r *ImageRepo) Create(ctx context.Context, potholeID int64) (*domain.Image, error) {
	var img domain.Image
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO images (pothole_id) VALUES ($1)
		RETURNING id, pothole_id, created_at
	`, potholeID).Scan(&img.ID, &img.PotholeID, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// GetByID returns an image row or domain.ErrNotFound.
func (r *ImageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	var img domain.Image
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, pothole_id, created_at FROM images WHERE id = $1`, id,
	).Scan(&img.ID, &img.PotholeID, &img.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &img, nil
}

// ListByPothole returns a page of images, newest first, and the total count.
func (r *ImageRepo) ListByPothole(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM images WHERE pothole_id = $1`, potholeID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, pothole_id, created_at
		FROM images
		WHERE pothole_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, potholeID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var imgs []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.PotholeID, &img.CreatedAt); err != nil {
			return nil, 0, err
		}
		imgs = append(imgs, img)
	}
	return imgs, total, rows.Err()
}

// IDsByPothole returns every image id of a pothole.
func (r *ImageRepo) IDsByPothole(ctx context.Context, potholeID int64) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM images WHERE pothole_id = $1 ORDER BY id`, potholeID)
	if err != nil {
		return nil, err
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

// Exists reports which of ids still have a row.
func (r *ImageRepo) Exists(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM images WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
