package nftexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	runner := NewRunner()

	res := runner.Run(context.Background(), "echo", "hello")
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	runner := NewRunner()

	res := runner.Run(context.Background(), "false")
	assert.NoError(t, res.Err, "non-zero exit is not a run error")
	assert.False(t, res.OK())
	assert.Equal(t, 1, res.ExitCode)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := NewRunner()

	res := runner.Run(context.Background(), "definitely-not-a-binary-afo")
	assert.Error(t, res.Err)
	assert.False(t, res.OK())
	assert.False(t, res.TimedOut())
}

func TestExecRunnerTimeout(t *testing.T) {
	runner := NewRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := runner.Run(ctx, "sleep", "5")
	assert.True(t, res.TimedOut())
	assert.False(t, res.OK())
}

func TestFakeRunnerScriptingAndRecording(t *testing.T) {
	fake := NewFakeRunner()
	fake.Script("nft list ruleset", Result{Stdout: "table inet filter {\n}\n"})
	fake.Script("nft -f *", Result{ExitCode: 1, Stderr: "boom"})

	res := fake.Run(context.Background(), "nft", "list", "ruleset")
	assert.Equal(t, "table inet filter {\n}\n", res.Stdout)
	assert.True(t, res.OK())

	res = fake.Run(context.Background(), "nft", "-f", "/tmp/whatever.nft")
	assert.Equal(t, 1, res.ExitCode)

	res = fake.Run(context.Background(), "hostname")
	assert.True(t, res.OK(), "unscripted commands succeed with empty output")

	assert.Equal(t, []string{
		"nft list ruleset",
		"nft -f /tmp/whatever.nft",
		"hostname",
	}, fake.Calls())
	assert.Equal(t, 3, fake.CallCount())
}
