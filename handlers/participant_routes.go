package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"phish-scoreboard/services"
)

func SetupParticipantRoutes(router fiber.Router, enrollment *services.EnrollmentService, participants *services.ParticipantService) {
	router.Post("/students-data", func(c *fiber.Ctx) error {
		var raw map[string]interface{}
		if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
		}

		p, err := enrollment.Register(c.UserContext(), profileFromBody(raw))
		if err != nil {
			return respondError(c, "register participant", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":   true,
			"id":        p.ID,
			"studentID": p.ParticipantID,
		})
	})

	router.Get("/students-data", func(c *fiber.Ctx) error {
		list, err := participants.List(c.UserContext())
		if err != nil {
			return respondError(c, "list participants", err)
		}
		return c.JSON(list)
	})
}

func profileFromBody(raw map[string]interface{}) services.Profile {
	return services.Profile{
		FullName:    stringField(raw, "fullName"),
		StudentID:   stringField(raw, "studentID"),
		College:     stringField(raw, "college"),
		Course:      stringField(raw, "course"),
		Address:     stringField(raw, "address"),
		Mobile:      stringField(raw, "mobile"),
		Email:       stringField(raw, "email"),
		Year:        stringField(raw, "year"),
		CGPA:        stringField(raw, "cgpa"),
		Opportunity: stringField(raw, "opportunity"),
	}
}

// stringField coerces any JSON scalar to its string form; null and absent
// keys become "".
func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
