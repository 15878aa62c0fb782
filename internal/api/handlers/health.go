package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db *sql.DB // nil when persistence is disabled
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database *sql.DB) *HealthHandler {
	return &HealthHandler{db: database}
}

// HealthCheck returns the system health status.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}

	if h.db != nil {
		resp["database"] = h.db.Ping() == nil
	}

	return c.JSON(resp)
}
