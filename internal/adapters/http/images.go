package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/usecases"
)

// potholeQueryID reads ?pothole= (or its alias ?potholeId=).
func potholeQueryID(c *fiber.Ctx) (int64, error) {
	raw := c.Query("pothole")
	if raw == "" {
		raw = c.Query("potholeId")
	}
	return ParseID(raw, "pothole")
}

// CreateImageHandler serves POST /v1/images?pothole=<id> with body {"encoding": "<base64>"}.
func CreateImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		potholeID, err := potholeQueryID(c)
		if err != nil {
			return errInvalidID(c, "pothole")
		}

		data, err := ParseImageBody(c.Body())
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return errInvalidBody(c, fe.Field, fe.Reason)
			}
			return errInvalidBase64(c)
		}

		img, err := deps.Images.Create(c.UserContext(), potholeID, data)
		switch {
		case err == nil:
			return created(c, CodeImageCreated, "image created", img)
		case errors.Is(err, domain.ErrNotFound):
			return errNotFound(c, "pothole not found")
		case errors.Is(err, usecases.ErrImageRowFailed), errors.Is(err, usecases.ErrUploadFailed):
			LoggerFromCtx(c.UserContext()).Error("image creation failed", "pothole_id", potholeID, "error", err)
			return newError(c, fiber.StatusInternalServerError, CodeImageFailed, "image could not be created", nil)
		default:
			return errUpstream(c, "image creation failed", err)
		}
	}
}

// GetImageHandler serves GET /v1/images/:id.
func GetImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParseID(c.Params("id"), "id")
		if err != nil {
			return errInvalidID(c, "id")
		}

		img, err := deps.Images.Get(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "image not found")
		}
		if err != nil {
			return errUpstream(c, "get image failed", err)
		}
		return ok(c, CodeImageRetrieved, "image retrieved", img)
	}
}

// ListImagesHandler serves GET /v1/images?pothole=<id>&offset=&limit=, newest first.
func ListImagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		potholeID, err := potholeQueryID(c)
		if err != nil {
			return errInvalidID(c, "pothole")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		imgs, total, err := deps.Images.ListByPothole(c.UserContext(), potholeID, offset, limit)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "pothole not found")
		}
		if err != nil {
			return errUpstream(c, "list images failed", err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg, "pothole", c.Query("pothole", c.Query("potholeId")))
		return ok(c, CodeImagesRetrieved, "images retrieved", PaginatedResponse{Items: imgs, Pagination: pg})
	}
}
