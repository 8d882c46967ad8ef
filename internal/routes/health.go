package routes

import (
    "context"
    "net/http"
    "time"

    "github.com/gofiber/fiber/v2"
)

const (
    statusOK       = "ok"
    statusDisabled = "disabled"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
    app.Get("/healthz", func(c *fiber.Ctx) error {
        store := "memory"
        idempotency := statusDisabled

        ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
        defer cancel()
        if d.DB != nil {
            store = statusOK
            if err := d.DB.Ping(ctx); err != nil {
                store = err.Error()
            }
        }
        if d.Cache != nil {
            idempotency = statusOK
            if err := d.Cache.Ping(ctx).Err(); err != nil {
                idempotency = err.Error()
            }
        }

        status := http.StatusOK
        if !healthy(store, "memory") || !healthy(idempotency, statusDisabled) {
            status = http.StatusServiceUnavailable
        }
        return c.Status(status).JSON(fiber.Map{
            "status":    fiber.Map{"wallet_store": store, "idempotency": idempotency},
            "timestamp": time.Now().UTC().Format(time.RFC3339Nano),
        })
    })
}

func healthy(state, allowed string) bool {
    return state == statusOK || state == allowed
}
