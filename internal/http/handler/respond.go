package handler

import (
	"github.com/gofiber/fiber/v2"
	errwrap "github.com/pkg/errors"

	"github.com/dbids-ops/dbids-console/internal/repository/dbids"
	"github.com/dbids-ops/dbids-console/internal/validation"
)

// respondError maps the three error families onto HTTP responses: per-field
// validation errors (422, never sent to the backend), backend API errors
// (status and machine-readable code passed through verbatim), and everything
// else as a bad-gateway with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var fieldErrs validation.FieldErrors
	if errwrap.As(err, &fieldErrs) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fieldErrs,
		})
	}

	var apiErr *dbids.APIError
	if errwrap.As(err, &apiErr) {
		body := fiber.Map{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		}
		if apiErr.AttemptsLeft != nil {
			body["attemptsLeft"] = *apiErr.AttemptsLeft
		}
		return c.Status(apiErr.Status).JSON(body)
	}

	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"message": "backend request failed",
	})
}
