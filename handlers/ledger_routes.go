package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"phish-scoreboard/models"
	"phish-scoreboard/services"
)

type recordActionRequest struct {
	StudentID string          `json:"studentID"`
	Action    string          `json:"action"`
	Meta      json.RawMessage `json:"meta"`
}

func SetupLedgerRoutes(router fiber.Router, ledger *services.Ledger, scoreboard *services.ScoreboardService, defaultLimit int) {
	// Body is parsed whatever the Content-Type; browsers send it via sendBeacon.
	router.Post("/record-action", func(c *fiber.Ctx) error {
		var req recordActionRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
		}

		record, err := ledger.Append(c.UserContext(), req.StudentID, req.Action, models.NewRawJSON(req.Meta))
		if err != nil {
			return respondError(c, "record action", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"points":  record.Points,
		})
	})

	router.Get("/scores", func(c *fiber.Ctx) error {
		scores, err := scoreboard.Scores(c.UserContext())
		if err != nil {
			return respondError(c, "get scores", err)
		}
		return c.JSON(scores)
	})

	router.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultLimit)
		entries, err := scoreboard.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return respondError(c, "get leaderboard", err)
		}
		return c.JSON(entries)
	})

	router.Get("/actions", func(c *fiber.Ctx) error {
		records, err := ledger.ListForParticipant(c.UserContext(), c.Query("studentID"))
		if err != nil {
			return respondError(c, "get actions", err)
		}

		type actionView struct {
			ID         uint           `json:"id"`
			ActionType string         `json:"action_type"`
			Points     int            `json:"points"`
			Meta       models.RawJSON `json:"meta"`
			CreatedAt  string         `json:"created_at"`
		}
		out := make([]actionView, len(records))
		for i, r := range records {
			out[i] = actionView{
				ID:         r.ID,
				ActionType: r.ActionType,
				Points:     r.Points,
				Meta:       r.Metadata,
				CreatedAt:  r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			}
		}
		return c.JSON(out)
	})

	router.Get("/action-types", func(c *fiber.Ctx) error {
		return c.JSON(ledger.Policy().Table())
	})
}
