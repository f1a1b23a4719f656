// Package httperr maps domain errors to HTTP responses.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

// Response is the JSON error body returned by every endpoint.
type Response struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// FromError converts membership failures into fiber errors. Validation errors
// become 400, denials 403, and anything else, including contract violations,
// an opaque 500. Errors that are already *fiber.Error pass through.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case membership.IsValidation(err):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case membership.IsDenied(err):
		return fiber.NewError(http.StatusForbidden, err.Error())
	default:
		return err
	}
}

// ErrorHandler renders errors as JSON. Unclassified errors are logged and
// reported as a generic internal error.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		message := "internal error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= http.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
				"contract_violation", membership.IsContractViolation(err),
			)
		}

		requestID, _ := c.Locals("request_id").(string)
		return c.Status(code).JSON(Response{Error: message, RequestID: requestID})
	}
}
