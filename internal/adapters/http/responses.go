package http

import "github.com/gofiber/fiber/v2"

// Envelope types.
const (
	TypeSuccess = "Success"
	TypeError   = "Error"
)

// Response codes. A code keeps its meaning forever; new meanings get new numbers.
const (
	CodeImageCreated      = 1
	CodePotholeCreated    = 2
	CodePotholeMerged     = 3
	CodeUnsupportedAction = 4
	CodeAlertChecked      = 5
	CodePotholesRetrieved = 6
	CodeDeleteFailed      = 7
	CodePotholeDeleted    = 8
	CodeInvalidBody       = 9
	CodeInvalidID         = 10
	CodeInvalidBase64     = 11
	CodeInvalidAction     = 12
	CodeInvalidQuery      = 13
	CodeUpstreamFailure   = 14
	CodeImageFailed       = 15
	CodeImageRetrieved    = 16
	CodeImagesRetrieved   = 17
	CodeNotFound          = 18
	CodePotholeRetrieved  = 19
	CodeUnauthorized      = 20
	CodeRateLimited       = 21
	CodeUpgradeRequired   = 22
	CodeBadRequest        = 23
)

// Envelope is the body of every API response.
type Envelope struct {
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals("requestid").(string)
	return reqID
}

// respond writes an envelope with the given status.
func respond(c *fiber.Ctx, status int, typ string, code int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Type:      typ,
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

func ok(c *fiber.Ctx, code int, message string, data any) error {
	return respond(c, fiber.StatusOK, TypeSuccess, code, message, data)
}

func created(c *fiber.Ctx, code int, message string, data any) error {
	return respond(c, fiber.StatusCreated, TypeSuccess, code, message, data)
}
