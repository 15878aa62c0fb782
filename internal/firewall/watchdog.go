package firewall

import (
	"context"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
)

// watchdog is the per-deployment monitor. It ticks once a second until the
// stop signal arrives, the deadline passes, or the health probe fails;
// deadline and probe failures trigger the rollback procedure. This is the
// only code path allowed to roll back without a caller request.
func (d *Deployer) watchdog(dep *deployment, probe func() bool) {
	defer close(dep.done)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-dep.stop:
			return
		case <-ticker.C:
		}

		if !time.Now().Before(dep.deadline) {
			d.fireRollback(dep, "heartbeat deadline expired")
			return
		}

		if probe != nil && !runProbe(probe) {
			d.fireRollback(dep, "health probe failed")
			return
		}
	}
}

// fireRollback restores the pre-deployment snapshot and retires the record.
func (d *Deployer) fireRollback(dep *deployment, reason string) {
	d.logger.Warn("Watchdog rolling back deployment",
		"rule_id", dep.ruleID,
		"reason", reason,
	)

	ctx := context.Background()
	if err := d.restoreBackup(ctx, dep.backupPath); err != nil {
		d.logger.Error("Watchdog rollback failed",
			"rule_id", dep.ruleID,
			"backup", dep.backupPath,
			"error", err,
		)
		d.emit(constants.StatusFailed, dep.ruleID, "watchdog rollback failed: "+err.Error())
		d.recordHistory(ctx, dep.ruleID, constants.StatusFailed, dep.backupPath, err.Error())
	} else {
		d.emit(constants.StatusRolledBack, dep.ruleID, "watchdog rollback: "+reason)
		d.recordHistory(ctx, dep.ruleID, constants.StatusRolledBack, dep.backupPath, reason)
	}

	d.mu.Lock()
	// The record may already be gone if confirm or rollback raced the
	// final tick; deleting by pointer identity keeps this safe.
	if current, ok := d.deployments[dep.ruleID]; ok && current == dep {
		delete(d.deployments, dep.ruleID)
	}
	d.mu.Unlock()
}

// runProbe shields the watchdog from a panicking health probe; a panic
// counts as a failed probe.
func runProbe(probe func() bool) (healthy bool) {
	defer func() {
		if recover() != nil {
			healthy = false
		}
	}()
	return probe()
}
