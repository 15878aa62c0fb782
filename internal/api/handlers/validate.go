package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/firewall"
)

// ValidateHandler serves syntax validation.
type ValidateHandler struct {
	validator *firewall.Validator
}

// NewValidateHandler creates a new validation handler.
func NewValidateHandler(validator *firewall.Validator) *ValidateHandler {
	return &ValidateHandler{validator: validator}
}

// ValidateSyntaxRequest is the request body for syntax validation.
type ValidateSyntaxRequest struct {
	Command   string `json:"command"`
	Platform  string `json:"platform"`
	Structure bool   `json:"structure_only,omitempty"`
}

// ValidateSyntax dry-runs the command through nft --check, or through the
// subprocess-free structural check when structure_only is set.
func (h *ValidateHandler) ValidateSyntax(c *fiber.Ctx) error {
	var req ValidateSyntaxRequest
	if err := c.BodyParser(&req); err != nil {
		return constants.ErrInvalidRequestBody
	}
	if req.Command == "" {
		return constants.ErrMissingCommand
	}
	if req.Platform == "" {
		req.Platform = constants.PlatformNFTables
	}

	if req.Structure {
		return c.JSON(firewall.ValidateRuleStructure(req.Command))
	}

	return c.JSON(h.validator.ValidateSyntax(c.Context(), req.Command, req.Platform))
}
