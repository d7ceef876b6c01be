package server

import (
	"context"
	"time"

	"facility-booking/controllers"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthController struct {
	checks  map[string]Pinger
	started time.Time
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks, started: time.Now()}
}

// Health answers 200 while every check passes, 503 otherwise
func (hc *HealthController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	results := make(map[string]string, len(hc.checks))
	for name, check := range hc.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	message := "Service is healthy"
	if status != fiber.StatusOK {
		message = "Service is degraded"
	}
	return controllers.Respond(c, status, message, fiber.Map{
		"uptime": time.Since(hc.started).Round(time.Second).String(),
		"checks": results,
	})
}
