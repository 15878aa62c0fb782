package firewall

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/security"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// Diagnostic positions look like "/tmp/x.nft:3:1-5:".
var lineNumberRegex = regexp.MustCompile(`:(\d+):\d+-\d+:`)

// Validator performs dry-run syntax validation of nft commands.
type Validator struct {
	runner nftexec.Runner
	logger *logger.Logger
}

// NewValidator creates a syntax validator.
func NewValidator(runner nftexec.Runner, log *logger.Logger) *Validator {
	return &Validator{runner: runner, logger: log}
}

// ValidateSyntax writes command to a temporary file and runs
// `nft --check -f` against it, returning structured diagnostics without
// touching the live ruleset.
func (v *Validator) ValidateSyntax(ctx context.Context, command, platform string) *ValidationResult {
	result := &ValidationResult{
		Command:     command,
		Errors:      []string{},
		Warnings:    []string{},
		LineNumbers: []int{},
	}

	if platform != constants.PlatformNFTables {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unsupported platform: %s. Only 'nftables' is supported.", platform))
		return result
	}

	// The safety gate runs before anything reaches a file or subprocess.
	if security.ContainsDangerousChars(command) {
		result.Errors = append(result.Errors, "Command contains potentially dangerous characters")
		return result
	}

	tmp, err := os.CreateTemp("", "afo-check-*.nft")
	if err != nil {
		result.Errors = append(result.Errors, "Failed to create temporary file: "+err.Error())
		return result
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(command); err != nil {
		tmp.Close()
		result.Errors = append(result.Errors, "Failed to write temporary file: "+err.Error())
		return result
	}
	if err := tmp.Close(); err != nil {
		result.Errors = append(result.Errors, "Failed to write temporary file: "+err.Error())
		return result
	}

	checkCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	defer cancel()

	res := v.runner.Run(checkCtx, "nft", "--check", "-f", tmpPath)
	switch {
	case res.TimedOut():
		result.Errors = append(result.Errors, "Validation timed out after 10 seconds")
		return result
	case res.Err != nil:
		result.Errors = append(result.Errors, "nft command failed to run: "+res.Err.Error())
		return result
	}

	result.Valid = res.ExitCode == 0

	if res.ExitCode != 0 {
		for _, line := range strings.Split(strings.TrimSpace(res.Stderr), "\n") {
			if line == "" {
				continue
			}
			if m := lineNumberRegex.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					result.LineNumbers = append(result.LineNumbers, n)
				}
			}
			if strings.Contains(strings.ToLower(line), "warning") {
				result.Warnings = append(result.Warnings, line)
			} else {
				result.Errors = append(result.Errors, line)
			}
		}
		// Diagnostics that defeated the classifier still get surfaced raw.
		if res.Stderr != "" && len(result.Errors) == 0 {
			result.Errors = append(result.Errors, strings.TrimSpace(res.Stderr))
		}
	}

	// nft occasionally prints warnings on stdout even when the check passes.
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line != "" && strings.Contains(strings.ToLower(line), "warning") {
			result.Warnings = append(result.Warnings, line)
		}
	}

	if v.logger != nil {
		v.logger.Debug("Syntax validation finished",
			"valid", result.Valid,
			"errors", len(result.Errors),
		)
	}

	return result
}

// ValidateRuleStructure performs a lightweight structural check without
// spawning a subprocess, so it works without privileges and without nft
// installed: non-empty input, balanced double quotes per line, and a
// warning whenever iptables syntax sneaks in.
func ValidateRuleStructure(command string) *ValidationResult {
	result := &ValidationResult{
		Command:     command,
		Errors:      []string{},
		Warnings:    []string{},
		LineNumbers: []int{},
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(command), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		result.Errors = append(result.Errors, "Empty command")
		return result
	}

	for i, line := range lines {
		if line == "}" || line == "};" {
			continue
		}
		if strings.Count(line, `"`)%2 != 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: Unbalanced quotes", i+1))
		}
		if strings.Contains(strings.ToLower(line), "iptables") {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: iptables syntax detected - this is nftables", i+1))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
