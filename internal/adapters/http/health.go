package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check with the number of
// route layers currently hosted in this process.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "healthy",
			"service": "layerd",
			"uptime":  time.Since(startedAt).String(),
		}
		if deps.Layers != nil {
			resp["hosted_layers"] = deps.Layers.HostedCount()
		}
		return c.JSON(resp)
	}
}

// ReadyHandler checks the collaborators a mutation needs: the layer store
// and the event broker. NATS being down degrades readiness because field
// change events and status reports stop flowing.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true

		if deps.DB == nil {
			checks["database"] = "not configured"
			ready = false
		} else if err := deps.DB.Pool.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
			ready = false
		}

		status := "ready"
		code := fiber.StatusOK
		if !ready {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
