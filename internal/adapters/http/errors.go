package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errPlanning returns the single user-facing planning failure. The status
// follows the cause; the message never does.
func errPlanning(c *fiber.Ctx, pf *domain.PlanningFailedError) error {
	status := fiber.StatusInternalServerError
	switch pf.Kind {
	case domain.FailureNotFound:
		status = fiber.StatusUnprocessableEntity
	case domain.FailureRouteService:
		status = fiber.StatusBadGateway
	default:
		if errors.Is(pf.Err, context.DeadlineExceeded) {
			status = fiber.StatusGatewayTimeout
		}
	}
	return newError(c, status, "planning_failed", pf.Error())
}

// writeError maps a domain error onto an APIError response. Anything it
// does not recognise is logged and reported as a 500 with msg.
func writeError(c *fiber.Ctx, err error, msg string) error {
	var pf *domain.PlanningFailedError
	switch {
	case errors.As(err, &pf):
		logging.FromContext(c.UserContext()).Warn("planning failed", "kind", pf.Kind.String(), "error", pf.Err)
		return errPlanning(c, pf)
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c, "Authentication required")
	case errors.Is(err, domain.ErrTripNotFound):
		return errNotFound(c, "Trip not found")
	case errors.Is(err, domain.ErrEmptyLocation):
		return errBadRequest(c, "Location is required")
	case errors.Is(err, domain.ErrMissingCredentials):
		return errBadRequest(c, "Email and password are required")
	case errors.Is(err, domain.ErrEmailTaken):
		return errBadRequest(c, "Email already in use")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errBadRequest(c, "Invalid credentials")
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	}
	logging.FromContext(c.UserContext()).Error(msg, "error", err)
	return errInternal(c, msg)
}

// ErrorHandler renders errors that escape handlers (404 routes, timeouts,
// panics recovered upstream) in the APIError shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "error"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusRequestTimeout:
			code = "timeout"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		case fiber.StatusRequestEntityTooLarge:
			code = "body_too_large"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	logging.FromContext(c.UserContext()).Error("unhandled error", "error", err)
	return errInternal(c, "internal server error")
}
