package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/db"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/firewall"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/repository"
)

// DeployHandler serves the supervised deployment operations.
type DeployHandler struct {
	deployer  *firewall.Deployer
	auditRepo repository.AuditLogRepository // nil when persistence is disabled
	depRepo   repository.DeploymentRepository
}

// NewDeployHandler creates a new deployment handler.
func NewDeployHandler(deployer *firewall.Deployer, auditRepo repository.AuditLogRepository, depRepo repository.DeploymentRepository) *DeployHandler {
	return &DeployHandler{deployer: deployer, auditRepo: auditRepo, depRepo: depRepo}
}

// DeployPolicyRequest is the request body for deploy_policy.
type DeployPolicyRequest struct {
	RuleID           string `json:"rule_id"`
	RuleContent      string `json:"rule_content"`
	Approved         bool   `json:"approved"`
	EnableHeartbeat  *bool  `json:"enable_heartbeat,omitempty"`
	HeartbeatTimeout int    `json:"heartbeat_timeout,omitempty"`
}

// DeployPolicy applies rule content under the backup/apply/watchdog protocol.
func (h *DeployHandler) DeployPolicy(c *fiber.Ctx) error {
	var req DeployPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return constants.ErrInvalidRequestBody
	}
	if req.RuleID == "" {
		return constants.ErrMissingRuleID
	}
	if req.RuleContent == "" {
		return constants.ErrMissingRuleContent
	}
	if req.HeartbeatTimeout < 0 {
		return constants.ErrInvalidTimeout
	}

	enableHeartbeat := true
	if req.EnableHeartbeat != nil {
		enableHeartbeat = *req.EnableHeartbeat
	}

	result := h.deployer.DeployPolicy(c.Context(), firewall.DeployRequest{
		RuleID:           req.RuleID,
		RuleContent:      req.RuleContent,
		Approved:         req.Approved,
		EnableHeartbeat:  enableHeartbeat,
		HeartbeatTimeout: time.Duration(req.HeartbeatTimeout) * time.Second,
	})

	h.audit(c, constants.AuditActionDeployPolicy, req.RuleID,
		fmt.Sprintf("status=%s heartbeat=%t", result.Status, result.HeartbeatActive))

	return c.JSON(result)
}

// ConfirmRequest is the request body for confirm and rollback operations.
type ConfirmRequest struct {
	RuleID string `json:"rule_id"`
}

// ConfirmDeployment finalizes a deployment and disarms its watchdog.
func (h *DeployHandler) ConfirmDeployment(c *fiber.Ctx) error {
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return constants.ErrInvalidRequestBody
	}
	if req.RuleID == "" {
		return constants.ErrMissingRuleID
	}

	success := h.deployer.ConfirmDeployment(req.RuleID)

	h.audit(c, constants.AuditActionConfirmDeploy, req.RuleID, fmt.Sprintf("success=%t", success))

	return c.JSON(fiber.Map{
		"success": success,
		"rule_id": req.RuleID,
	})
}

// RollbackRule restores the pre-deployment snapshot for a rule.
func (h *DeployHandler) RollbackRule(c *fiber.Ctx) error {
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return constants.ErrInvalidRequestBody
	}
	if req.RuleID == "" {
		return constants.ErrMissingRuleID
	}

	result := h.deployer.RollbackDeployment(c.Context(), req.RuleID)

	h.audit(c, constants.AuditActionRollback, req.RuleID, "status="+result.Status)

	return c.JSON(result)
}

// ListDeployments returns recent deployment history for one rule or for the
// whole host. Available only when persistence is configured.
func (h *DeployHandler) ListDeployments(c *fiber.Ctx) error {
	if h.depRepo == nil {
		return constants.ErrNotFound.WithMessage("deployment history requires a configured database")
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var (
		deployments []db.Deployment
		err         error
	)
	if ruleID := c.Query("rule_id"); ruleID != "" {
		deployments, err = h.depRepo.FindByRuleID(c.Context(), ruleID, limit)
	} else {
		deployments, err = h.depRepo.FindRecent(c.Context(), limit)
	}
	if err != nil {
		return constants.ErrDatabaseFailure.Wrap(err)
	}

	return c.JSON(fiber.Map{
		"deployments": deployments,
		"active":      h.deployer.ActiveDeployments(),
	})
}

func (h *DeployHandler) audit(c *fiber.Ctx, action, ruleID, details string) {
	if h.auditRepo == nil {
		return
	}
	_ = h.auditRepo.Create(c.Context(), &db.AuditLog{
		Action:   action,
		Resource: "rule:" + ruleID,
		Details:  details,
		IP:       c.IP(),
	})
}
