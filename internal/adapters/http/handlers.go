package http

import (
	"errors"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/usecases"
)

// PotholeActionHandler serves POST /v1/potholes:<action>. The action is
// validated before the body.
func PotholeActionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rest, isPotholes := strings.CutPrefix(c.Params("resource"), "potholes")
		if !isPotholes {
			return errNotFound(c, "resource not found")
		}

		action, err := ParseAction(rest)
		switch {
		case errors.Is(err, ErrInvalidActionFormat):
			return errInvalidAction(c)
		case err != nil:
			return errUnsupportedAction(c)
		}

		lat, long, err := ParseCoordinates(c.Body())
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return errInvalidBody(c, fe.Field, fe.Reason)
			}
			return errInvalidBody(c, "latitude", err.Error())
		}

		switch action {
		case ActionReport:
			return reportPothole(c, deps, lat, long)
		case ActionAlert:
			return checkAlert(c, deps, lat, long)
		default:
			return errUnsupportedAction(c)
		}
	}
}

func reportPothole(c *fiber.Ctx, deps *Dependencies, lat, long float64) error {
	res, err := deps.Reports.Report(c.UserContext(), lat, long)
	if err != nil {
		return errUpstream(c, "report pothole failed", err)
	}

	// Both outcomes answer 200; clients branch on the code.
	if res.Outcome == usecases.OutcomeMerged {
		return ok(c, CodePotholeMerged, "pothole report count incremented", res.Pothole)
	}
	return ok(c, CodePotholeCreated, "pothole created", res.Pothole)
}

func checkAlert(c *fiber.Ctx, deps *Dependencies, lat, long float64) error {
	alert := deps.Alerts.ShouldAlert(c.UserContext(), lat, long)
	return ok(c, CodeAlertChecked, "alert check completed", fiber.Map{"alert": alert})
}

// bboxParams in validation order.
var bboxParams = []string{"minLat", "minLong", "maxLat", "maxLong"}

// parseBounds reads the bounding box query parameters.
func parseBounds(c *fiber.Ctx) (domain.Bounds, *FieldError) {
	var v [4]float64
	for i, name := range bboxParams {
		f, err := ParseFloatParam(c.Query(name), name)
		if err != nil {
			return domain.Bounds{}, err.(*FieldError)
		}
		if fe := checkCoordinate(name, f); fe != nil {
			return domain.Bounds{}, fe
		}
		v[i] = f
	}

	b := domain.Bounds{MinLat: v[0], MinLong: v[1], MaxLat: v[2], MaxLong: v[3]}
	return b, checkOrder(b)
}

// checkCoordinate range-checks a latitude (name ends in "Lat" or is "lat")
// or a longitude.
func checkCoordinate(name string, v float64) *FieldError {
	limit := 180.0
	if name == "lat" || strings.HasSuffix(name, "Lat") {
		limit = 90
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return &FieldError{Field: name, Reason: name + " is out of range"}
	}
	return nil
}

func checkOrder(b domain.Bounds) *FieldError {
	if b.MaxLat < b.MinLat {
		return &FieldError{Field: "maxLat", Reason: "maxLat must not be less than minLat"}
	}
	if b.MaxLong < b.MinLong {
		return &FieldError{Field: "maxLong", Reason: "maxLong must not be less than minLong"}
	}
	return nil
}

// ValidateBounds applies the bounding box checks of GET /v1/potholes to b.
func ValidateBounds(b domain.Bounds) error {
	vals := [4]float64{b.MinLat, b.MinLong, b.MaxLat, b.MaxLong}
	for i, name := range bboxParams {
		if fe := checkCoordinate(name, vals[i]); fe != nil {
			return fe
		}
	}
	if fe := checkOrder(b); fe != nil {
		return fe
	}
	return nil
}

// ValidatePoint range-checks a latitude/longitude pair.
func ValidatePoint(lat, long float64) error {
	if fe := checkCoordinate("lat", lat); fe != nil {
		return fe
	}
	if fe := checkCoordinate("long", long); fe != nil {
		return fe
	}
	return nil
}

// PotholesInViewHandler serves GET /v1/potholes?minLat&minLong&maxLat&maxLong.
func PotholesInViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, fe := parseBounds(c)
		if fe != nil {
			return errInvalidQuery(c, fe.Field, fe.Reason)
		}

		rows, err := deps.Potholes.InView(c.UserContext(), b)
		if err != nil {
			return errUpstream(c, "potholes in view failed", err)
		}

		c.Set("Cache-Control", "public, max-age=15")
		return ok(c, CodePotholesRetrieved, "potholes retrieved", rows)
	}
}

// GetPotholeHandler serves GET /v1/potholes/:id.
func GetPotholeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParseID(c.Params("id"), "id")
		if err != nil {
			return errInvalidID(c, "id")
		}

		p, err := deps.Potholes.GetByID(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "pothole not found")
		}
		if err != nil {
			return errUpstream(c, "get pothole failed", err)
		}
		return ok(c, CodePotholeRetrieved, "pothole retrieved", p)
	}
}

// DeletePotholeHandler serves DELETE /v1/potholes/:id.
func DeletePotholeHandler(deps *Dependencies) fiber.Handler {
	return deletePothole(deps, func(c *fiber.Ctx) string { return c.Params("id") })
}

// LegacyDeletePotholeHandler serves DELETE /v1/potholes?id=.
func LegacyDeletePotholeHandler(deps *Dependencies) fiber.Handler {
	return deletePothole(deps, func(c *fiber.Ctx) string { return c.Query("id") })
}

func deletePothole(deps *Dependencies, rawID func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParseID(rawID(c), "id")
		if err != nil {
			return errInvalidID(c, "id")
		}

		err = deps.Potholes.Delete(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return newError(c, fiber.StatusNotFound, CodeDeleteFailed, "pothole could not be deleted", fiber.Map{"id": id})
		}
		if err != nil {
			return errUpstream(c, "delete pothole failed", err)
		}
		return ok(c, CodePotholeDeleted, "pothole deleted", fiber.Map{"id": id})
	}
}
