package firewall

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
)

const snapshot = "table inet filter {\n\tchain input {\n\t\ttype filter hook input priority 0; policy accept;\n\t}\n}\n"

func newTestDeployer(t *testing.T, requireApproval bool) (*Deployer, *nftexec.FakeRunner, string) {
	t.Helper()

	runner := nftexec.NewFakeRunner()
	runner.Script("nft list ruleset", nftexec.Result{Stdout: snapshot})

	backupDir := t.TempDir()
	deployer := NewDeployer(DeployerOptions{
		RequireApproval: requireApproval,
		BackupDir:       backupDir,
		DefaultTimeout:  30 * time.Second,
	}, runner, nil, nil, testLogger())
	deployer.tick = 10 * time.Millisecond

	return deployer, runner, backupDir
}

func backupFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDeployRequiresApproval(t *testing.T) {
	deployer, runner, backupDir := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:      "r1",
		RuleContent: "add rule inet filter input tcp dport 22 accept",
		Approved:    false,
	})

	assert.False(t, result.Success)
	assert.Equal(t, constants.StatusPending, result.Status)
	assert.Contains(t, result.Error, "approval")
	assert.Zero(t, runner.CallCount(), "refusal must have no side effects")
	assert.Empty(t, backupFiles(t, backupDir), "no backup file on refusal")
}

func TestDeployRejectsDangerousContent(t *testing.T) {
	deployer, runner, backupDir := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:      "r1",
		RuleContent: "accept; rm -rf /",
		Approved:    true,
	})

	assert.False(t, result.Success)
	assert.Equal(t, constants.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "dangerous characters")
	assert.Zero(t, runner.CallCount(), "no subprocess for dangerous input")
	assert.Empty(t, backupFiles(t, backupDir))
}

func TestDeployRejectsUnsafeRuleID(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:      "../escape",
		RuleContent: "add rule inet filter input accept",
		Approved:    true,
	})

	assert.Equal(t, constants.StatusFailed, result.Status)
	assert.Zero(t, runner.CallCount())
}

func TestDeploySuccessWithoutHeartbeat(t *testing.T) {
	deployer, runner, backupDir := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:          "web-https",
		RuleContent:     "add rule inet filter input tcp dport 443 accept",
		Approved:        true,
		EnableHeartbeat: false,
	})

	assert.True(t, result.Success)
	assert.Equal(t, constants.StatusDeployed, result.Status)
	assert.False(t, result.HeartbeatActive)
	assert.Empty(t, deployer.ActiveDeployments())

	// Backup precedes apply.
	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "nft list ruleset", calls[0])
	assert.True(t, strings.HasPrefix(calls[1], "nft -f "), "apply goes through nft -f, got %q", calls[1])

	names := backupFiles(t, backupDir)
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "backup_web-https_"))
	assert.True(t, strings.HasSuffix(names[0], ".nft"))

	content, err := os.ReadFile(filepath.Join(backupDir, names[0]))
	require.NoError(t, err)
	assert.Equal(t, snapshot, string(content), "backup carries the exact pre-apply ruleset")
}

func TestDeployBackupFailureAbortsApply(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)
	runner.Script("nft list ruleset", nftexec.Result{ExitCode: 1, Stderr: "netlink: permission denied"})

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:      "r1",
		RuleContent: "add rule inet filter input accept",
		Approved:    true,
	})

	assert.Equal(t, constants.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "Failed to create backup")
	require.Len(t, runner.Calls(), 1, "apply must not run when the backup failed")
}

func TestDeployApplyFailureRollsBack(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)
	runner.Script("nft -f *", nftexec.Result{ExitCode: 1, Stderr: "Error: syntax error"})

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:      "bad",
		RuleContent: "add rule inet filter input bogus",
		Approved:    true,
	})

	assert.False(t, result.Success)
	assert.Equal(t, constants.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "syntax error")

	// list, apply (failed), flush, restore
	calls := runner.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "nft flush ruleset", calls[2])
	assert.True(t, strings.HasPrefix(calls[3], "nft -f "+deployer.backupDir), "restore replays the backup, got %q", calls[3])
}

func TestDeployConfirmStopsWatchdog(t *testing.T) {
	deployer, _, _ := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "r1",
		RuleContent:      "add rule inet filter input tcp dport 22 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: time.Minute,
	})
	require.True(t, result.Success)
	assert.True(t, result.HeartbeatActive)
	assert.Equal(t, []string{"r1"}, deployer.ActiveDeployments())

	assert.True(t, deployer.ConfirmDeployment("r1"))
	assert.Empty(t, deployer.ActiveDeployments())

	// A second confirm finds nothing.
	assert.False(t, deployer.ConfirmDeployment("r1"))
}

func TestDeployRefusesDuplicateArmedRuleID(t *testing.T) {
	deployer, _, _ := newTestDeployer(t, true)

	first := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "dup",
		RuleContent:      "add rule inet filter input tcp dport 22 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: time.Minute,
	})
	require.True(t, first.Success)

	second := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "dup",
		RuleContent:      "add rule inet filter input tcp dport 80 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: time.Minute,
	})
	assert.Equal(t, constants.StatusFailed, second.Status)
	assert.Contains(t, second.Error, "still armed")

	deployer.ConfirmDeployment("dup")
}

func TestWatchdogTimeoutRollsBack(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "r1",
		RuleContent:      "add rule inet filter input tcp dport 22 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: 30 * time.Millisecond,
	})
	require.True(t, result.Success)

	// No confirmation arrives; the watchdog must fire and restore.
	assert.Eventually(t, func() bool {
		calls := runner.Calls()
		for _, call := range calls {
			if call == "nft flush ruleset" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "watchdog rollback did not run")

	assert.Eventually(t, func() bool {
		return len(deployer.ActiveDeployments()) == 0
	}, 2*time.Second, 10*time.Millisecond, "watchdog record was not retired")

	calls := runner.Calls()
	last := calls[len(calls)-1]
	assert.True(t, strings.HasPrefix(last, "nft -f "+deployer.backupDir), "rollback replays the pre-deployment snapshot")
}

func TestWatchdogProbeFailureRollsBack(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)

	var mu sync.Mutex
	healthy := true

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "probe",
		RuleContent:      "add rule inet filter input tcp dport 22 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: time.Minute,
		HeartbeatFn: func() bool {
			mu.Lock()
			defer mu.Unlock()
			return healthy
		},
	})
	require.True(t, result.Success)

	mu.Lock()
	healthy = false
	mu.Unlock()

	assert.Eventually(t, func() bool {
		for _, call := range runner.Calls() {
			if call == "nft flush ruleset" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "failed probe must trigger rollback")
}

func TestWatchdogPanickingProbeRollsBack(t *testing.T) {
	deployer, runner, _ := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:           "panic",
		RuleContent:      "add rule inet filter input tcp dport 22 accept",
		Approved:         true,
		EnableHeartbeat:  true,
		HeartbeatTimeout: time.Minute,
		HeartbeatFn:      func() bool { panic("probe exploded") },
	})
	require.True(t, result.Success)

	assert.Eventually(t, func() bool {
		for _, call := range runner.Calls() {
			if call == "nft flush ruleset" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRollbackWithoutBackup(t *testing.T) {
	deployer, _, _ := newTestDeployer(t, true)

	result := deployer.RollbackDeployment(context.Background(), "never-deployed")

	assert.False(t, result.Success)
	assert.Equal(t, constants.StatusFailed, result.Status)
	assert.Equal(t, "No backup found for this rule", result.Error)
}

func TestRollbackRestoresNewestBackup(t *testing.T) {
	deployer, runner, backupDir := newTestDeployer(t, true)

	older := filepath.Join(backupDir, "backup_r1_20240101_000000.nft")
	newer := filepath.Join(backupDir, "backup_r1_20240102_000000.nft")
	require.NoError(t, os.WriteFile(older, []byte("old"), 0o600))
	require.NoError(t, os.WriteFile(newer, []byte("new"), 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	result := deployer.RollbackDeployment(context.Background(), "r1")

	assert.True(t, result.Success)
	assert.Equal(t, constants.StatusRolledBack, result.Status)
	assert.Equal(t, newer, result.BackupPath)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "nft flush ruleset", calls[0])
	assert.Equal(t, "nft -f "+newer, calls[1])
}

func TestDeployRemovesTempFile(t *testing.T) {
	deployer, _, _ := newTestDeployer(t, true)

	result := deployer.DeployPolicy(context.Background(), DeployRequest{
		RuleID:          "tmpcheck",
		RuleContent:     "add rule inet filter input tcp dport 22 accept",
		Approved:        true,
		EnableHeartbeat: false,
	})
	require.True(t, result.Success)

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "afo-rule-*.nft"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary rule files must not survive the call")
}
