package handlers

import "github.com/gofiber/fiber/v2"

// HealthHandler handles health check requests
type HealthHandler struct {
	Version        string
	Environment    string
	SessionBackend string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, environment, sessionBackend string) *HealthHandler {
	return &HealthHandler{
		Version:        version,
		Environment:    environment,
		SessionBackend: sessionBackend,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "ok",
		"service":         "salesagent",
		"version":         h.Version,
		"environment":     h.Environment,
		"session_backend": h.SessionBackend,
	})
}
