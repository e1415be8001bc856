package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"isdn/internal/board"
	"isdn/internal/domain"
	applog "isdn/internal/log"
	"isdn/internal/services"
)

// statusFor maps service errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid), errors.Is(err, services.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrBadCreds):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, board.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientStock), errors.Is(err, board.ErrSaving):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail logs err under action and answers with a JSON error. Internal errors get a
// generic message.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	code := statusFor(err)
	msg := err.Error()
	switch {
	case code == fiber.StatusForbidden:
		applog.Security(c, action, fields)
	case code >= fiber.StatusInternalServerError:
		applog.Error(c, action, err, fields)
		msg = "something went wrong, please retry"
	default:
		if fields == nil {
			fields = map[string]any{}
		}
		fields["error"] = err.Error()
		applog.Info(c, action, fields)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// badRequest answers 400 for input that never reached a service.
func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
}
