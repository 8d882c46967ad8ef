package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the caller's tracing identifier.
	CorrelationIDHeader = "X-Correlation-ID"
	// CorrelationIDLocal is the fiber.Ctx locals key holding the resolved id.
	CorrelationIDLocal = "correlation_id"
)

// CorrelationID ensures each request has a correlation identifier for tracing
// and logging. A valid UUID in the header is kept, anything else is replaced.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Get(CorrelationIDHeader))
		if err != nil {
			id = uuid.New()
		}
		c.Set(CorrelationIDHeader, id.String())
		c.Locals(CorrelationIDLocal, id)

		return c.Next()
	}
}

// CorrelationIDFrom returns the id stored by CorrelationID, or uuid.Nil.
func CorrelationIDFrom(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CorrelationIDLocal).(uuid.UUID)
	return id
}
