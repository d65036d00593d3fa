package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phish-scoreboard/services"
)

// respondError maps service errors onto HTTP statuses. Expected failures
// carry their message; everything else is logged and answered opaquely.
func respondError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": publicMessage(err, services.ErrValidation)})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": publicMessage(err, services.ErrNotFound)})
	case errors.Is(err, services.ErrConflict):
		log.Printf("[HTTP] %s rejected: %v", op, err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This email or student ID already exists."})
	case errors.Is(err, services.ErrNotConfigured):
		log.Printf("[HTTP] %s unavailable: %v", op, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service not configured"})
	case errors.Is(err, services.ErrUpstream):
		log.Printf("[HTTP] ❌ %s upstream failure: %v", op, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream service error"})
	default:
		log.Printf("[HTTP] ❌ %s failed: %v", op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
}

// publicMessage strips the sentinel prefix ("not found: student not found").
func publicMessage(err, kind error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
		return rest
	}
	return msg
}
