package firewall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
)

func TestValidateSyntaxUnsupportedPlatform(t *testing.T) {
	runner := nftexec.NewFakeRunner()
	validator := NewValidator(runner, testLogger())

	result := validator.ValidateSyntax(context.Background(), "add rule inet filter input accept", "iptables")

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Unsupported platform: iptables. Only 'nftables' is supported.", result.Errors[0])
	assert.Zero(t, runner.CallCount(), "no subprocess for unsupported platforms")
}

func TestValidateSyntaxDangerousCommand(t *testing.T) {
	runner := nftexec.NewFakeRunner()
	validator := NewValidator(runner, testLogger())

	result := validator.ValidateSyntax(context.Background(), "add rule inet filter input accept; rm -rf /", "nftables")

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "Command contains potentially dangerous characters")
	assert.Zero(t, runner.CallCount(), "dangerous input must never reach a subprocess")
}

func TestValidateSyntaxValid(t *testing.T) {
	runner := nftexec.NewFakeRunner()
	runner.Script("nft --check -f *", nftexec.Result{})
	validator := NewValidator(runner, testLogger())

	result := validator.ValidateSyntax(context.Background(), "add rule inet filter input tcp dport 22 accept", "nftables")

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, runner.CallCount())
}

func TestValidateSyntaxParsesDiagnostics(t *testing.T) {
	runner := nftexec.NewFakeRunner()
	runner.Script("nft --check -f *", nftexec.Result{
		ExitCode: 1,
		Stderr: "/tmp/afo-check-1.nft:3:1-12: Error: syntax error, unexpected string\n" +
			"/tmp/afo-check-1.nft:7:5-9: Warning: deprecated syntax\n",
	})
	validator := NewValidator(runner, testLogger())

	result := validator.ValidateSyntax(context.Background(), "bogus ruleset", "nftables")

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "syntax error")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "deprecated")
	assert.Equal(t, []int{3, 7}, result.LineNumbers)
}

func TestValidateSyntaxRawStderrFallback(t *testing.T) {
	runner := nftexec.NewFakeRunner()
	runner.Script("nft --check -f *", nftexec.Result{
		ExitCode: 1,
		Stderr:   "internal: warning emitted, nothing else\n",
	})
	validator := NewValidator(runner, testLogger())

	result := validator.ValidateSyntax(context.Background(), "x", "nftables")

	assert.False(t, result.Valid)
	// Everything classified as warnings, so the raw stderr surfaces as the error.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "warning emitted")
}

func TestValidateRuleStructure(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		result := ValidateRuleStructure("add rule inet filter input tcp dport 22 accept")
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("Empty", func(t *testing.T) {
		result := ValidateRuleStructure("   \n# comment only\n")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Errors, "Empty command")
	})

	t.Run("UnbalancedQuotes", func(t *testing.T) {
		result := ValidateRuleStructure(`add rule inet filter input iifname "eth0 accept`)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "Line 1: Unbalanced quotes", result.Errors[0])
	})

	t.Run("IptablesWarning", func(t *testing.T) {
		result := ValidateRuleStructure("iptables -A INPUT -p tcp --dport 22 -j ACCEPT")
		assert.True(t, result.Valid, "iptables syntax is a warning, not an error")
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "iptables syntax detected")
	})

	t.Run("ClosingBracesSkipped", func(t *testing.T) {
		result := ValidateRuleStructure("table inet filter {\nchain input {\n}\n}")
		assert.True(t, result.Valid)
	})
}
