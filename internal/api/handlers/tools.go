package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ToolInfo describes one orchestrator tool for discovery.
type ToolInfo struct {
	Name        string `json:"name"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// ToolsHandler serves the tool discovery endpoint.
type ToolsHandler struct{}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler() *ToolsHandler {
	return &ToolsHandler{}
}

var toolCatalog = []ToolInfo{
	{
		Name:        "get_network_context",
		Method:      "GET",
		Path:        "/api/v1/tools/network-context",
		Description: "Gather interfaces, the active nftables ruleset, and the hostname",
	},
	{
		Name:        "validate_syntax",
		Method:      "POST",
		Path:        "/api/v1/tools/validate-syntax",
		Description: "Check nftables syntax with a dry run; nothing is applied",
	},
	{
		Name:        "detect_conflicts",
		Method:      "POST",
		Path:        "/api/v1/tools/detect-conflicts",
		Description: "Check a proposed rule against the active ruleset for shadow/redundant/contradiction/overlap conflicts",
	},
	{
		Name:        "deploy_policy",
		Method:      "POST",
		Path:        "/api/v1/tools/deploy-policy",
		Description: "Apply rules with backup, approval gate, and auto-rollback watchdog",
	},
	{
		Name:        "confirm_rule_deployment",
		Method:      "POST",
		Path:        "/api/v1/tools/confirm-deployment",
		Description: "Finalize a deployment and disarm its auto-rollback watchdog",
	},
	{
		Name:        "rollback_rule",
		Method:      "POST",
		Path:        "/api/v1/tools/rollback",
		Description: "Restore the ruleset snapshot taken before a rule was deployed",
	},
}

// ListTools returns the tool catalog.
func (h *ToolsHandler) ListTools(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"tools": toolCatalog})
}
