package repository

import (
	"context"
	"database/sql"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/db"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// DeploymentRepository defines the interface for deployment history access.
type DeploymentRepository interface {
	Create(ctx context.Context, dep *db.Deployment) error
	FindByRuleID(ctx context.Context, ruleID string, limit int) ([]db.Deployment, error)
	FindRecent(ctx context.Context, limit int) ([]db.Deployment, error)
}

type deploymentRepo struct {
	BasePostgresRepo
}

// NewDeploymentRepository creates a new DeploymentRepository.
func NewDeploymentRepository(conn *sql.DB) DeploymentRepository {
	return &deploymentRepo{BasePostgresRepo{DB: conn}}
}

var deploymentCols = `id, rule_id, status, backup_path, error, created_at`

func (r *deploymentRepo) Create(ctx context.Context, dep *db.Deployment) error {
	return r.QueryRowContext(ctx,
		`INSERT INTO deployments (rule_id, status, backup_path, error) VALUES ($1,$2,$3,$4) RETURNING id, created_at`,
		dep.RuleID, dep.Status, dep.BackupPath, dep.Error,
	).Scan(&dep.ID, &dep.CreatedAt)
}

func (r *deploymentRepo) FindByRuleID(ctx context.Context, ruleID string, limit int) ([]db.Deployment, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT `+deploymentCols+` FROM deployments WHERE rule_id = $1 ORDER BY created_at DESC LIMIT $2`,
		ruleID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeployments(rows)
}

func (r *deploymentRepo) FindRecent(ctx context.Context, limit int) ([]db.Deployment, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT `+deploymentCols+` FROM deployments ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeployments(rows)
}

func scanDeployments(rows *sql.Rows) ([]db.Deployment, error) {
	var deps []db.Deployment
	for rows.Next() {
		var d db.Deployment
		if err := rows.Scan(&d.ID, &d.RuleID, &d.Status, &d.BackupPath, &d.Error, &d.CreatedAt); err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// HistorySink adapts a DeploymentRepository to the deployer's optional
// HistoryRecorder hook. Persistence failures are logged, never propagated;
// history must not interfere with a live deployment.
type HistorySink struct {
	repo   DeploymentRepository
	logger *logger.Logger
}

// NewHistorySink wraps a repository for use by the deployer.
func NewHistorySink(repo DeploymentRepository, log *logger.Logger) *HistorySink {
	return &HistorySink{repo: repo, logger: log}
}

// RecordDeployment persists one deployment outcome.
func (s *HistorySink) RecordDeployment(ctx context.Context, ruleID, status, backupPath, errMsg string) {
	dep := &db.Deployment{
		RuleID:     ruleID,
		Status:     status,
		BackupPath: backupPath,
		Error:      errMsg,
	}
	if err := s.repo.Create(ctx, dep); err != nil {
		s.logger.Warn("Failed to persist deployment history", "rule_id", ruleID, "error", err)
	}
}
