package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"smarttrade/internal/domain"
	applog "smarttrade/internal/log"
	"smarttrade/internal/sync"
)

// respondErr maps domain errors onto HTTP statuses. Anything unrecognized is
// a storage-level failure: logged with detail, answered without it.
func respondErr(c *fiber.Ctx, action string, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Error(), "field": verr.Field,
		})
	}
	var serr *domain.InsufficientStockError
	if errors.As(err, &serr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     serr.Error(),
			"available": serr.Available,
			"requested": serr.Requested,
		})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, domain.ErrProductHasSales):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, sync.ErrRemoteDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "local storage operation failed",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
