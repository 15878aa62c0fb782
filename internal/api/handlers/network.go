package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/network"
)

// NetworkHandler serves network context snapshots.
type NetworkHandler struct {
	collector *network.Collector
}

// NewNetworkHandler creates a new network handler.
func NewNetworkHandler(collector *network.Collector) *NetworkHandler {
	return &NetworkHandler{collector: collector}
}

// GetNetworkContext returns a fresh snapshot of interfaces, the active
// ruleset, and the hostname.
func (h *NetworkHandler) GetNetworkContext(c *fiber.Ctx) error {
	return c.JSON(h.collector.Collect(c.Context()))
}
