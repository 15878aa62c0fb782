package firewall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/security"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// DeploymentEvents receives lifecycle notifications for every deployment.
// The websocket hub implements it; a nil events sink is valid.
type DeploymentEvents interface {
	EmitDeployment(status, ruleID, message string)
}

// HistoryRecorder persists deployment outcomes. A nil recorder is valid;
// persistence is optional.
type HistoryRecorder interface {
	RecordDeployment(ctx context.Context, ruleID, status, backupPath, errMsg string)
}

// DeployRequest carries the inputs of one deploy operation.
type DeployRequest struct {
	RuleID           string
	RuleContent      string
	Approved         bool
	EnableHeartbeat  bool
	HeartbeatTimeout time.Duration // zero means the configured default
	HeartbeatFn      func() bool   // optional health probe
}

// DeployerOptions configures a Deployer.
type DeployerOptions struct {
	RequireApproval bool
	BackupDir       string
	DefaultTimeout  time.Duration // default watchdog deadline
}

// Deployer serializes apply/rollback operations, owns the pre-apply
// backups, and arms one watchdog per deployed rule_id.
type Deployer struct {
	runner  nftexec.Runner
	logger  *logger.Logger
	events  DeploymentEvents
	history HistoryRecorder

	requireApproval bool
	backupDir       string
	defaultTimeout  time.Duration
	tick            time.Duration // watchdog tick; shortened in tests

	mu          sync.Mutex
	deployments map[string]*deployment
}

// deployment is the in-memory record of one armed rule_id.
type deployment struct {
	ruleID     string
	backupPath string
	deadline   time.Time
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func (d *deployment) signalStop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// NewDeployer creates a deployer.
func NewDeployer(opts DeployerOptions, runner nftexec.Runner, events DeploymentEvents, history HistoryRecorder, log *logger.Logger) *Deployer {
	return &Deployer{
		runner:          runner,
		logger:          log,
		events:          events,
		history:         history,
		requireApproval: opts.RequireApproval,
		backupDir:       opts.BackupDir,
		defaultTimeout:  opts.DefaultTimeout,
		tick:            time.Second,
		deployments:     make(map[string]*deployment),
	}
}

// DeployPolicy applies rule content under the supervised protocol:
// approval gate, safety gate, backup capture, atomic apply, and optional
// watchdog arming. It halts on the first failure; a failed apply restores
// the backup before returning.
func (d *Deployer) DeployPolicy(ctx context.Context, req DeployRequest) *DeploymentResult {
	if d.requireApproval && !req.Approved {
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusPending,
			RuleID: req.RuleID,
			Error:  "Deployment requires explicit approval (approved=true)",
		})
	}

	// The safety gate runs before any subprocess or file name is built.
	if !security.IsValidRuleID(req.RuleID) || security.ContainsDangerousChars(req.RuleID) {
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusFailed,
			RuleID: req.RuleID,
			Error:  "Rule id contains invalid or potentially dangerous characters",
		})
	}
	if security.ContainsDangerousChars(req.RuleContent) {
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusFailed,
			RuleID: req.RuleID,
			Error:  "Rule content contains potentially dangerous characters",
		})
	}

	d.mu.Lock()
	if _, exists := d.deployments[req.RuleID]; exists {
		d.mu.Unlock()
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusFailed,
			RuleID: req.RuleID,
			Error:  "A deployment with this rule_id is still armed; confirm or roll it back first",
		})
	}
	d.mu.Unlock()

	backupPath, err := d.createBackup(ctx, req.RuleID)
	if err != nil {
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusFailed,
			RuleID: req.RuleID,
			Error:  "Failed to create backup - aborting deployment: " + err.Error(),
		})
	}

	tmp, err := os.CreateTemp("", "afo-rule-*.nft")
	if err != nil {
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      "Failed to stage rule content: " + err.Error(),
		})
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(req.RuleContent); err != nil {
		tmp.Close()
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      "Failed to stage rule content: " + err.Error(),
		})
	}
	if err := tmp.Close(); err != nil {
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      "Failed to stage rule content: " + err.Error(),
		})
	}

	applyCtx, cancel := context.WithTimeout(ctx, constants.ApplyTimeoutSeconds*time.Second)
	res := d.runner.Run(applyCtx, "nft", "-f", tmpPath)
	cancel()

	switch {
	case res.TimedOut():
		d.restoreAfterFailedApply(req.RuleID, backupPath)
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      "Deployment timed out",
		})
	case res.Err != nil:
		// nft never started; the ruleset is untouched.
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      "nft command failed to run: " + res.Err.Error(),
		})
	case res.ExitCode != 0:
		d.restoreAfterFailedApply(req.RuleID, backupPath)
		errMsg := strings.TrimSpace(res.Stderr)
		if errMsg == "" {
			errMsg = "nft command failed"
		}
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     req.RuleID,
			BackupPath: backupPath,
			Error:      errMsg,
		})
	}

	result := &DeploymentResult{
		Success:    true,
		Status:     constants.StatusDeployed,
		RuleID:     req.RuleID,
		BackupPath: backupPath,
	}

	if req.EnableHeartbeat {
		timeout := req.HeartbeatTimeout
		if timeout <= 0 {
			timeout = d.defaultTimeout
		}

		dep := &deployment{
			ruleID:     req.RuleID,
			backupPath: backupPath,
			deadline:   time.Now().Add(timeout),
			stop:       make(chan struct{}),
			done:       make(chan struct{}),
		}

		d.mu.Lock()
		d.deployments[req.RuleID] = dep
		d.mu.Unlock()

		go d.watchdog(dep, req.HeartbeatFn)
		result.HeartbeatActive = true

		d.logger.Info("Deployment armed",
			"rule_id", req.RuleID,
			"timeout", timeout.String(),
			"backup", backupPath,
		)
	} else {
		d.logger.Info("Deployment applied without heartbeat", "rule_id", req.RuleID)
	}

	return d.finish(ctx, result)
}

// ConfirmDeployment stops the watchdog for rule_id and drops its record.
// It reports whether a record existed.
func (d *Deployer) ConfirmDeployment(ruleID string) bool {
	d.mu.Lock()
	dep, ok := d.deployments[ruleID]
	if ok {
		delete(d.deployments, ruleID)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}

	dep.signalStop()
	d.joinWatchdog(dep)

	d.logger.Info("Deployment confirmed", "rule_id", ruleID)
	d.emit(constants.StatusApproved, ruleID, "deployment confirmed, watchdog disarmed")
	d.recordHistory(context.Background(), ruleID, constants.StatusApproved, dep.backupPath, "")
	return true
}

// RollbackDeployment restores the newest backup recorded for rule_id,
// stopping its watchdog first if one is armed.
func (d *Deployer) RollbackDeployment(ctx context.Context, ruleID string) *DeploymentResult {
	if !security.IsValidRuleID(ruleID) || security.ContainsDangerousChars(ruleID) {
		return &DeploymentResult{
			Status:    constants.StatusFailed,
			RuleID:    ruleID,
			Error:     "Rule id contains invalid or potentially dangerous characters",
			Timestamp: time.Now(),
		}
	}

	d.mu.Lock()
	dep, armed := d.deployments[ruleID]
	if armed {
		delete(d.deployments, ruleID)
	}
	d.mu.Unlock()

	if armed {
		dep.signalStop()
		d.joinWatchdog(dep)
	}

	backupPath, err := d.newestBackup(ruleID)
	if err != nil {
		return d.finish(ctx, &DeploymentResult{
			Status: constants.StatusFailed,
			RuleID: ruleID,
			Error:  "No backup found for this rule",
		})
	}

	if err := d.restoreBackup(ctx, backupPath); err != nil {
		return d.finish(ctx, &DeploymentResult{
			Status:     constants.StatusFailed,
			RuleID:     ruleID,
			BackupPath: backupPath,
			Error:      "Failed to restore backup: " + err.Error(),
		})
	}

	d.logger.Info("Deployment rolled back", "rule_id", ruleID, "backup", backupPath)
	return d.finish(ctx, &DeploymentResult{
		Success:    true,
		Status:     constants.StatusRolledBack,
		RuleID:     ruleID,
		BackupPath: backupPath,
	})
}

// ActiveDeployments returns the rule ids with an armed watchdog.
func (d *Deployer) ActiveDeployments() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.deployments))
	for id := range d.deployments {
		ids = append(ids, id)
	}
	return ids
}

// createBackup captures the current ruleset and writes it under the backup
// directory. The backup must exist on disk before any apply happens.
func (d *Deployer) createBackup(ctx context.Context, ruleID string) (string, error) {
	listCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	defer cancel()

	res := d.runner.Run(listCtx, "nft", "list", "ruleset")
	if !res.OK() {
		if res.Err != nil {
			return "", res.Err
		}
		return "", fmt.Errorf("nft list ruleset exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	if err := os.MkdirAll(d.backupDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("backup_%s_%s.nft", ruleID, time.Now().Format("20060102_150405"))
	path := filepath.Join(d.backupDir, name)
	if err := os.WriteFile(path, []byte(res.Stdout), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// restoreAfterFailedApply restores the snapshot after a failed apply. The
// apply failure is what gets reported; a restore failure on top of it can
// only be logged.
func (d *Deployer) restoreAfterFailedApply(ruleID, backupPath string) {
	if err := d.restoreBackup(context.Background(), backupPath); err != nil {
		d.logger.Error("Restore after failed apply also failed",
			"rule_id", ruleID,
			"backup", backupPath,
			"error", err,
		)
	}
}

// restoreBackup flushes the live ruleset and replays the backup file.
func (d *Deployer) restoreBackup(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup missing: %w", err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, constants.RestoreTimeoutSeconds*time.Second)
	d.runner.Run(flushCtx, "nft", "flush", "ruleset")
	cancel()

	applyCtx, cancel := context.WithTimeout(ctx, constants.RestoreTimeoutSeconds*time.Second)
	defer cancel()
	res := d.runner.Run(applyCtx, "nft", "-f", backupPath)
	if !res.OK() {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("nft -f exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// newestBackup locates the most recent backup for rule_id by modification
// time.
func (d *Deployer) newestBackup(ruleID string) (string, error) {
	entries, err := os.ReadDir(d.backupDir)
	if err != nil {
		return "", err
	}

	prefix := "backup_" + ruleID + "_"
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || !strings.HasSuffix(entry.Name(), ".nft") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = entry.Name()
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no backup for rule %s", ruleID)
	}
	return filepath.Join(d.backupDir, newest), nil
}

// joinWatchdog waits for a signalled watchdog to exit, bounded so a stuck
// rollback subprocess cannot hang the caller.
func (d *Deployer) joinWatchdog(dep *deployment) {
	select {
	case <-dep.done:
	case <-time.After(constants.WatchdogJoinSeconds * time.Second):
		d.logger.Warn("Watchdog join timed out", "rule_id", dep.ruleID)
	}
}

// finish stamps, logs, emits, and records a deployment result.
func (d *Deployer) finish(ctx context.Context, result *DeploymentResult) *DeploymentResult {
	result.Timestamp = time.Now()

	if !result.Success && result.Error != "" {
		d.logger.Warn("Deployment operation did not succeed",
			"rule_id", result.RuleID,
			"status", result.Status,
			"error", result.Error,
		)
	}

	d.emit(result.Status, result.RuleID, result.Error)
	d.recordHistory(ctx, result.RuleID, result.Status, result.BackupPath, result.Error)
	return result
}

func (d *Deployer) emit(status, ruleID, message string) {
	if d.events != nil {
		d.events.EmitDeployment(status, ruleID, message)
	}
}

func (d *Deployer) recordHistory(ctx context.Context, ruleID, status, backupPath, errMsg string) {
	if d.history != nil {
		d.history.RecordDeployment(ctx, ruleID, status, backupPath, errMsg)
	}
}
