package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"phish-scoreboard/services"
)

func SetupPhishingRoutes(router fiber.Router, generator *services.PhishingGenerator) {
	router.Post("/generate-phishing", func(c *fiber.Ctx) error {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
		}

		email, err := generator.Generate(c.UserContext(), req.Prompt)
		if err != nil {
			return respondError(c, "generate phishing email", err)
		}
		return c.JSON(email)
	})
}
