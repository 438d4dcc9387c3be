package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
	"github.com/aipothole/pothole-api/internal/pkg/telemetry"
)

const imageContentType = "image/png"

var (
	// ErrImageRowFailed means no image row was created.
	ErrImageRowFailed = errors.New("image row not created")
	// ErrUploadFailed means the image row exists but its content was not stored.
	ErrUploadFailed = errors.New("image upload failed")
)

// ImageService handles image evidence.
type ImageService struct {
	potholes  ports.PotholeRepository
	images    ports.ImageRepository
	store     ports.ObjectStore
	publisher ports.EventPublisher
}

// NewImageService creates a new ImageService. publisher may be nil.
func NewImageService(
	potholes ports.PotholeRepository,
	images ports.ImageRepository,
	store ports.ObjectStore,
	publisher ports.EventPublisher,
) *ImageService {
	return &ImageService{potholes: potholes, images: images, store: store, publisher: publisher}
}

// Create attaches a PNG to an existing pothole. The row is inserted before the
// upload and is left in place if the upload fails.
func (s *ImageService) Create(ctx context.Context, potholeID int64, data []byte) (*domain.Image, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanImageCreate)
	defer span.End()
	span.SetAttributes(attribute.Int64(telemetry.AttrPotholeID, potholeID))

	if _, err := s.potholes.GetByID(ctx, potholeID); err != nil {
		return nil, fmt.Errorf("get pothole %d: %w", potholeID, err)
	}

	img, err := s.images.Create(ctx, potholeID)
	if err != nil {
		metrics.ImageOutcomes.WithLabelValues("row_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "row insert failed")
		return nil, fmt.Errorf("%w: %v", ErrImageRowFailed, err)
	}
	span.SetAttributes(attribute.Int64(telemetry.AttrImageID, img.ID))

	if err := s.store.Upload(ctx, domain.ImageObjectKey(img.ID), imageContentType, data); err != nil {
		metrics.ImageOutcomes.WithLabelValues("upload_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		s.publish(ctx, domain.EventImageUploadFailed, img)
		return nil, fmt.Errorf("%w: image %d: %v", ErrUploadFailed, img.ID, err)
	}

	img.URL = s.store.PublicURL(domain.ImageObjectKey(img.ID))
	metrics.ImageOutcomes.WithLabelValues("created").Inc()
	s.publish(ctx, domain.EventImageCreated, img)
	return img, nil
}

// Get returns one image with its public URL.
func (s *ImageService) Get(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get image %d: %w", id, err)
	}
	img.URL = s.store.PublicURL(domain.ImageObjectKey(img.ID))
	return img, nil
}

// ListByPothole returns a page of images of a pothole, newest first, and the total count.
func (s *ImageService) ListByPothole(ctx context.Context, potholeID int64, offset, limit int) ([]domain.Image, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.potholes.GetByID(ctx, potholeID); err != nil {
		return nil, 0, fmt.Errorf("get pothole %d: %w", potholeID, err)
	}

	imgs, total, err := s.images.ListByPothole(ctx, potholeID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	if imgs == nil {
		imgs = []domain.Image{}
	}
	for i := range imgs {
		imgs[i].URL = s.store.PublicURL(domain.ImageObjectKey(imgs[i].ID))
	}
	return imgs, total, nil
}

// DeleteObjects removes the stored content of the given images.
func (s *ImageService) DeleteObjects(ctx context.Context, imageIDs []int64) error {
	if len(imageIDs) == 0 {
		return nil
	}
	keys := make([]string, len(imageIDs))
	for i, id := range imageIDs {
		keys[i] = domain.ImageObjectKey(id)
	}
	if err := s.store.Delete(ctx, keys); err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}
	metrics.MaintenancePurged.WithLabelValues("objects").Add(float64(len(keys)))
	return nil
}

// PurgeOrphans walks the bucket in pages of batch objects and deletes content
// whose image row no longer exists. Keys not named "<id>.png" are skipped.
func (s *ImageService) PurgeOrphans(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	purged := 0
	for offset := 0; ; offset += batch {
		keys, err := s.store.List(ctx, "", offset, batch)
		if err != nil {
			return purged, fmt.Errorf("list objects: %w", err)
		}

		ids := make([]int64, 0, len(keys))
		byID := make(map[int64]string, len(keys))
		for _, key := range keys {
			id, ok := imageIDFromKey(key)
			if !ok {
				continue
			}
			ids = append(ids, id)
			byID[id] = key
		}

		if len(ids) > 0 {
			exists, err := s.images.Exists(ctx, ids)
			if err != nil {
				return purged, fmt.Errorf("check image rows: %w", err)
			}
			var orphans []string
			for _, id := range ids {
				if !exists[id] {
					orphans = append(orphans, byID[id])
				}
			}
			if len(orphans) > 0 {
				if err := s.store.Delete(ctx, orphans); err != nil {
					return purged, fmt.Errorf("delete orphans: %w", err)
				}
				purged += len(orphans)
				// Deleted keys shift the listing back.
				offset -= len(orphans)
			}
		}

		if len(keys) < batch {
			break
		}
	}
	metrics.MaintenancePurged.WithLabelValues("orphan_objects").Add(float64(purged))
	return purged, nil
}

func imageIDFromKey(key string) (int64, bool) {
	name, ok := strings.CutSuffix(key, ".png")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(name, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *ImageService) publish(ctx context.Context, kind string, img *domain.Image) {
	if s.publisher == nil {
		return
	}
	event := &domain.ImageEvent{Kind: kind, ImageID: img.ID, PotholeID: img.PotholeID, Time: time.Now().UTC()}
	if err := s.publisher.PublishImageEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish image event failed", "kind", kind, "image_id", img.ID, "error", err)
	}
}
