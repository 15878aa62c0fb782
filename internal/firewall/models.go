// Package firewall implements the orchestrator core: parsing textual nft
// rules, deciding whether rules intersect, classifying conflicts against the
// active ruleset, dry-run syntax validation, and supervised deployment with
// automatic rollback.
package firewall

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
)

// ParsedRule is the structured view of one textual nft rule. A nil/empty
// match field means the rule does not constrain that criterion and matches
// anything.
type ParsedRule struct {
	Family   string `json:"family"`
	Table    string `json:"table"`
	Chain    string `json:"chain"`
	Protocol string `json:"protocol,omitempty"`
	SAddr    string `json:"saddr,omitempty"`
	DAddr    string `json:"daddr,omitempty"`
	SPort    string `json:"sport,omitempty"`
	DPort    string `json:"dport,omitempty"`
	IIf      string `json:"iif,omitempty"`
	OIf      string `json:"oif,omitempty"`
	Action   string `json:"action,omitempty"`
	Raw      string `json:"raw"`
}

// Specificity counts how many match criteria the rule constrains. A rule
// with fewer specified criteria matches a broader slice of traffic.
func (r *ParsedRule) Specificity() int {
	n := 0
	for _, v := range []string{r.Protocol, r.SAddr, r.DAddr, r.SPort, r.DPort, r.IIf, r.OIf} {
		if v != "" {
			n++
		}
	}
	return n
}

// FirewallRule is a structured rule as supplied by a caller, before
// rendering to nft syntax.
type FirewallRule struct {
	ID                 string `json:"id,omitempty"`
	Table              string `json:"table"`
	Chain              string `json:"chain"`
	Family             string `json:"family"`
	Protocol           string `json:"protocol,omitempty"`
	SourceAddress      string `json:"source_address,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`
	SourcePort         string `json:"source_port,omitempty"`
	DestinationPort    string `json:"destination_port,omitempty"`
	InterfaceIn        string `json:"interface_in,omitempty"`
	InterfaceOut       string `json:"interface_out,omitempty"`
	Action             string `json:"action"`
	JumpTarget         string `json:"jump_target,omitempty"`
	Comment            string `json:"comment,omitempty"`
	Priority           int    `json:"priority"`
	Enabled            bool   `json:"enabled"`
}

// NewFirewallRule returns a rule with defaults filled in: a fresh id, the
// inet family, and the filter table.
func NewFirewallRule(chain, action string) *FirewallRule {
	return &FirewallRule{
		ID:      uuid.New().String(),
		Table:   "filter",
		Chain:   chain,
		Family:  constants.FamilyInet,
		Action:  action,
		Enabled: true,
	}
}

// ToNFTCommand renders the rule as an "add rule" command in current nft
// syntax: protocol via meta l4proto, addresses prefixed with their family,
// and port matches only when the protocol carries ports.
func (r *FirewallRule) ToNFTCommand() string {
	parts := []string{fmt.Sprintf("add rule %s %s %s", r.Family, r.Table, r.Chain)}

	if r.InterfaceIn != "" {
		parts = append(parts, fmt.Sprintf("iifname %q", r.InterfaceIn))
	}
	if r.InterfaceOut != "" {
		parts = append(parts, fmt.Sprintf("oifname %q", r.InterfaceOut))
	}

	// Protocol must come before port specifications.
	if r.Protocol != "" && r.Protocol != constants.ProtocolAny {
		parts = append(parts, "meta l4proto "+r.Protocol)
	}

	// Address matching requires an ip/ip6 prefix.
	if r.SourceAddress != "" {
		parts = append(parts, addressFamily(r.SourceAddress)+" saddr "+r.SourceAddress)
	}
	if r.DestinationAddress != "" {
		parts = append(parts, addressFamily(r.DestinationAddress)+" daddr "+r.DestinationAddress)
	}

	// Port matching requires tcp/udp protocol context.
	if hasPorts(r.Protocol) {
		if r.SourcePort != "" {
			parts = append(parts, fmt.Sprintf("%s sport %s", r.Protocol, r.SourcePort))
		}
		if r.DestinationPort != "" {
			parts = append(parts, fmt.Sprintf("%s dport %s", r.Protocol, r.DestinationPort))
		}
	}

	if r.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment %q", r.Comment))
	}

	if r.Action == constants.ActionJump && r.JumpTarget != "" {
		parts = append(parts, "jump "+r.JumpTarget)
	} else {
		parts = append(parts, r.Action)
	}

	return strings.Join(parts, " ")
}

func addressFamily(addr string) string {
	if strings.Contains(addr, ":") {
		return constants.FamilyIPv6
	}
	return constants.FamilyIPv4
}

func hasPorts(protocol string) bool {
	return protocol == constants.ProtocolTCP || protocol == constants.ProtocolUDP
}

// RuleSet is a named collection of structured rules.
type RuleSet struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Rules       []*FirewallRule `json:"rules"`
	CreatedAt   time.Time       `json:"created_at"`
	Version     int             `json:"version"`
}

// Conflict pairs a detected conflict type with the existing rule it was
// detected against.
type Conflict struct {
	Type         string `json:"type"`
	ExistingRule string `json:"existing_rule"`
	Explanation  string `json:"explanation"`
}

// ConflictReport is the result of checking a proposed rule against the
// active ruleset.
type ConflictReport struct {
	HasConflicts    bool       `json:"has_conflicts"`
	ProposedRule    string     `json:"proposed_rule"`
	Conflicts       []Conflict `json:"conflicts"`
	Recommendations []string   `json:"recommendations"`
}

// ValidationResult is the outcome of syntax validation.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Command     string   `json:"command"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	LineNumbers []int    `json:"line_numbers"`
}

// DeploymentResult is the outcome of a deploy, confirm, or rollback
// operation.
type DeploymentResult struct {
	Success         bool      `json:"success"`
	Status          string    `json:"status"`
	RuleID          string    `json:"rule_id"`
	BackupPath      string    `json:"backup_path,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	HeartbeatActive bool      `json:"heartbeat_active"`
}
