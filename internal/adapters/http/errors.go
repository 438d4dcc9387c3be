package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// newError writes an Error envelope. data may be nil.
func newError(c *fiber.Ctx, status, code int, message string, data any) error {
	return respond(c, status, TypeError, code, message, data)
}

// errInvalidBody reports a missing or malformed JSON body element.
func errInvalidBody(c *fiber.Ctx, field, reason string) error {
	return newError(c, fiber.StatusBadRequest, CodeInvalidBody, reason, fiber.Map{"field": field})
}

// errInvalidID reports an id parameter that is not a positive integer.
func errInvalidID(c *fiber.Ctx, field string) error {
	return newError(c, fiber.StatusBadRequest, CodeInvalidID, "invalid id parameter", fiber.Map{"field": field})
}

// errInvalidQuery reports a bad query parameter.
func errInvalidQuery(c *fiber.Ctx, field, reason string) error {
	return newError(c, fiber.StatusBadRequest, CodeInvalidQuery, reason, fiber.Map{"field": field})
}

func errInvalidBase64(c *fiber.Ctx) error {
	return newError(c, fiber.StatusBadRequest, CodeInvalidBase64, "image is not valid base64", nil)
}

func errInvalidAction(c *fiber.Ctx) error {
	return newError(c, fiber.StatusUnprocessableEntity, CodeInvalidAction, "action must be of the form potholes:<action>", nil)
}

func errUnsupportedAction(c *fiber.Ctx) error {
	return newError(c, fiber.StatusNotFound, CodeUnsupportedAction, "unsupported action", nil)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, CodeNotFound, msg, nil)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, CodeUnauthorized, msg, nil)
}

// errUpstream logs err with the request logger and returns a generic 500.
// Upstream details never reach the client.
func errUpstream(c *fiber.Ctx, msg string, err error) error {
	LoggerFromCtx(c.UserContext()).Error(msg, "error", err, "path", c.Path())
	return newError(c, fiber.StatusInternalServerError, CodeUpstreamFailure, "internal error", nil)
}

// ErrorHandler renders errors that escape handlers (unknown routes, panics,
// timeouts, oversized bodies) as envelopes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return errUpstream(c, "unhandled error", err)
	}
	switch fe.Code {
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return newError(c, fe.Code, CodeNotFound, "resource not found", nil)
	case fiber.StatusTooManyRequests:
		return newError(c, fe.Code, CodeRateLimited, "too many requests, please try again later", nil)
	case fiber.StatusRequestTimeout:
		return errUpstream(c, "request timed out", err)
	case fiber.StatusRequestEntityTooLarge:
		return errInvalidBody(c, "body", "request body too large")
	case fiber.StatusUpgradeRequired:
		return newError(c, fe.Code, CodeUpgradeRequired, "websocket upgrade required", nil)
	}
	if fe.Code >= 500 {
		return errUpstream(c, "server error", err)
	}
	return newError(c, fe.Code, CodeBadRequest, fe.Message, nil)
}
