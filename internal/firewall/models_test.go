package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNFTCommandMinimal(t *testing.T) {
	rule := NewFirewallRule("input", "accept")
	assert.Equal(t, "add rule inet filter input accept", rule.ToNFTCommand())
	assert.NotEmpty(t, rule.ID)
}

func TestToNFTCommandFull(t *testing.T) {
	rule := &FirewallRule{
		Table:              "filter",
		Chain:              "input",
		Family:             "inet",
		Protocol:           "tcp",
		SourceAddress:      "10.0.0.0/8",
		DestinationAddress: "192.168.1.10",
		SourcePort:         "1024-65535",
		DestinationPort:    "22",
		InterfaceIn:        "eth0",
		Action:             "accept",
		Comment:            "ssh from internal",
	}

	assert.Equal(t,
		`add rule inet filter input iifname "eth0" meta l4proto tcp ip saddr 10.0.0.0/8 ip daddr 192.168.1.10 tcp sport 1024-65535 tcp dport 22 comment "ssh from internal" accept`,
		rule.ToNFTCommand())
}

func TestToNFTCommandIPv6AddressPrefix(t *testing.T) {
	rule := &FirewallRule{
		Table:         "filter",
		Chain:         "input",
		Family:        "inet",
		Protocol:      "udp",
		SourceAddress: "2001:db8::/32",
		Action:        "drop",
	}

	assert.Equal(t,
		"add rule inet filter input meta l4proto udp ip6 saddr 2001:db8::/32 drop",
		rule.ToNFTCommand())
}

func TestToNFTCommandPortsRequireTransportProtocol(t *testing.T) {
	rule := &FirewallRule{
		Table:           "filter",
		Chain:           "input",
		Family:          "inet",
		Protocol:        "icmp",
		DestinationPort: "22",
		Action:          "drop",
	}

	assert.NotContains(t, rule.ToNFTCommand(), "dport", "icmp carries no ports")
}

func TestToNFTCommandJump(t *testing.T) {
	rule := &FirewallRule{
		Table:      "filter",
		Chain:      "input",
		Family:     "inet",
		Action:     "jump",
		JumpTarget: "ssh_guard",
	}

	assert.Equal(t, "add rule inet filter input jump ssh_guard", rule.ToNFTCommand())
}

// Rendering then parsing must preserve every non-wildcard criterion.
func TestRenderParseRoundTrip(t *testing.T) {
	rule := &FirewallRule{
		Table:              "filter",
		Chain:              "input",
		Family:             "inet",
		Protocol:           "tcp",
		SourceAddress:      "10.0.0.0/8",
		DestinationAddress: "192.168.1.10",
		SourcePort:         "1024-65535",
		DestinationPort:    "22",
		InterfaceIn:        "eth0",
		InterfaceOut:       "wan0",
		Action:             "accept",
	}

	parsed := ParseRule(rule.ToNFTCommand())
	require.NotNil(t, parsed)

	assert.Equal(t, rule.Family, parsed.Family)
	assert.Equal(t, rule.Table, parsed.Table)
	assert.Equal(t, rule.Chain, parsed.Chain)
	assert.Equal(t, rule.Protocol, parsed.Protocol)
	assert.Equal(t, rule.SourceAddress, parsed.SAddr)
	assert.Equal(t, rule.DestinationAddress, parsed.DAddr)
	assert.Equal(t, rule.SourcePort, parsed.SPort)
	assert.Equal(t, rule.DestinationPort, parsed.DPort)
	assert.Equal(t, rule.InterfaceIn, parsed.IIf)
	assert.Equal(t, rule.InterfaceOut, parsed.OIf)
	assert.Equal(t, rule.Action, parsed.Action)
}
