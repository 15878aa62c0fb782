package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/db"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/firewall"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/repository"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/websocket"
)

// ConflictsHandler serves conflict detection.
type ConflictsHandler struct {
	detector  *firewall.Detector
	auditRepo repository.AuditLogRepository // nil when persistence is disabled
	hub       *websocket.Hub
}

// NewConflictsHandler creates a new conflict detection handler.
func NewConflictsHandler(detector *firewall.Detector, auditRepo repository.AuditLogRepository, hub *websocket.Hub) *ConflictsHandler {
	return &ConflictsHandler{detector: detector, auditRepo: auditRepo, hub: hub}
}

// DetectConflictsRequest is the request body for conflict detection.
type DetectConflictsRequest struct {
	ProposedRule  string `json:"proposed_rule"`
	ActiveRuleset string `json:"active_ruleset,omitempty"`
}

// DetectConflicts checks a proposed rule against the active ruleset. When
// active_ruleset is omitted the live ruleset is fetched from the host.
func (h *ConflictsHandler) DetectConflicts(c *fiber.Ctx) error {
	var req DetectConflictsRequest
	if err := c.BodyParser(&req); err != nil {
		return constants.ErrInvalidRequestBody
	}
	if req.ProposedRule == "" {
		return constants.ErrMissingProposedRule
	}

	report := h.detector.DetectConflicts(c.Context(), req.ProposedRule, req.ActiveRuleset)

	h.hub.EmitConflict(req.ProposedRule, len(report.Conflicts))

	if h.auditRepo != nil {
		_ = h.auditRepo.Create(c.Context(), &db.AuditLog{
			Action:   constants.AuditActionDetectConflicts,
			Resource: "ruleset",
			Details:  fmt.Sprintf("proposed=%q conflicts=%d", req.ProposedRule, len(report.Conflicts)),
			IP:       c.IP(),
		})
	}

	return c.JSON(report)
}
