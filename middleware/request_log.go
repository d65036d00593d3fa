// middleware/request_log.go
package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDLocal = "request_id"

// RequestLogMiddleware tags each request with an X-Request-ID (reusing the
// caller's when present) and logs one line per request.
func RequestLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDLocal, requestID)
		c.Set(fiber.HeaderXRequestID, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		log.Printf("[HTTP] %s %s %s → %d (%s)", requestID, c.Method(), c.Path(), status, time.Since(start).Round(time.Microsecond))
		return err
	}
}
