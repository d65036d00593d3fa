package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"phish-scoreboard/services"
)

// SetupAdminRoutes registers the irreversible reset and the CSV export.
// Any confirmation step belongs to the caller.
func SetupAdminRoutes(router fiber.Router, ledger *services.Ledger, exporter *services.ExportService) {
	router.Post("/clear-students-data", func(c *fiber.Ctx) error {
		if err := ledger.ClearAll(c.UserContext()); err != nil {
			return respondError(c, "clear data", err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "All student entries cleared.",
		})
	})

	router.Get("/export-students-data", func(c *fiber.Ctx) error {
		data, _, err := exporter.CSV(c.UserContext())
		if err != nil {
			return respondError(c, "export participants", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", exporter.Filename()))
		return c.Send(data)
	})
}
