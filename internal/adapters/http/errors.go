package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"routelayer/internal/core/domain"
	"routelayer/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code, message, field string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Field:     field,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg, "")
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg, "")
}

// errUnprocessable returns a 422 error for a rejected field value.
func errUnprocessable(c *fiber.Ctx, msg, field string) error {
	return newError(c, 422, "validation_failed", msg, field)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg, "")
}

// mapDomainError translates service errors onto the HTTP surface:
// conflicting inputs are the caller's request shape (400), a rejected value
// names the offending field (422), unknown layers are 404.
func mapDomainError(c *fiber.Ctx, err error) error {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return errBadRequest(c, cfgErr.Error())
	}
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return errUnprocessable(c, valErr.Error(), string(valErr.Field))
	}
	if errors.Is(err, usecases.ErrLayerNotFound) {
		return errNotFound(c, "layer not found")
	}
	return errInternal(c, err.Error())
}
