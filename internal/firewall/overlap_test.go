package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworksOverlapIdentical(t *testing.T) {
	for _, addr := range []string{"10.0.0.1", "192.168.1.0/24", "2001:db8::1", "2001:db8::/32"} {
		assert.True(t, NetworksOverlap(addr, addr), "%s overlaps itself", addr)
	}
}

func TestNetworksOverlapContainment(t *testing.T) {
	assert.True(t, NetworksOverlap("10.0.0.0/8", "10.1.2.3"))
	assert.True(t, NetworksOverlap("10.1.2.3", "10.0.0.0/8"))
	assert.True(t, NetworksOverlap("192.168.0.0/16", "192.168.10.0/24"))
	assert.True(t, NetworksOverlap("2001:db8::/32", "2001:db8:1::1"))

	assert.False(t, NetworksOverlap("10.0.0.0/8", "11.0.0.0/8"))
	assert.False(t, NetworksOverlap("192.168.1.0/24", "192.168.2.0/24"))
	assert.False(t, NetworksOverlap("192.168.1.5", "192.168.1.6"))
}

func TestNetworksOverlapVersionMismatch(t *testing.T) {
	assert.False(t, NetworksOverlap("10.0.0.0/8", "2001:db8::/32"))
	assert.False(t, NetworksOverlap("::1", "127.0.0.1"))
}

func TestNetworksOverlapUnparseableAssumesOverlap(t *testing.T) {
	assert.True(t, NetworksOverlap("not-an-address", "10.0.0.1"))
	assert.True(t, NetworksOverlap("10.0.0.1", "@set-name"))
}

func TestPortsOverlapWildcards(t *testing.T) {
	for _, spec := range []string{"", "22", "20-25", "80,443"} {
		assert.True(t, PortsOverlap("", spec))
		assert.True(t, PortsOverlap(spec, ""))
	}
}

func TestPortsOverlapRangesAndLists(t *testing.T) {
	assert.True(t, PortsOverlap("20-25", "22"))
	assert.True(t, PortsOverlap("22", "20-25"))
	assert.True(t, PortsOverlap("20-25", "25-30"))
	assert.True(t, PortsOverlap("80,443", "443"))
	assert.True(t, PortsOverlap("80,443", "443,8443"))

	assert.False(t, PortsOverlap("22", "80"))
	assert.False(t, PortsOverlap("20-25", "26-30"))
	assert.False(t, PortsOverlap("80,443", "8080"))
}

func TestPortsOverlapUnparseableAssumesOverlap(t *testing.T) {
	assert.True(t, PortsOverlap("ssh", "80"))
	assert.True(t, PortsOverlap("22", "http,https"))
}

func TestRulesOverlapWildcardsAgree(t *testing.T) {
	broad := &ParsedRule{Protocol: "tcp"}
	narrow := &ParsedRule{Protocol: "tcp", DPort: "22", SAddr: "10.0.0.1"}
	assert.True(t, RulesOverlap(broad, narrow))
	assert.True(t, RulesOverlap(narrow, broad))
}

func TestRulesOverlapDisagreements(t *testing.T) {
	base := &ParsedRule{Family: "inet", Table: "filter", Chain: "input", Protocol: "tcp", DPort: "22"}

	for name, other := range map[string]*ParsedRule{
		"chain":    {Family: "inet", Table: "filter", Chain: "output", Protocol: "tcp", DPort: "22"},
		"table":    {Family: "inet", Table: "nat", Chain: "input", Protocol: "tcp", DPort: "22"},
		"protocol": {Family: "inet", Table: "filter", Chain: "input", Protocol: "udp", DPort: "22"},
		"dport":    {Family: "inet", Table: "filter", Chain: "input", Protocol: "tcp", DPort: "80"},
	} {
		assert.False(t, RulesOverlap(base, other), "mismatched %s must not overlap", name)
	}
}

func TestRulesOverlapInterfaces(t *testing.T) {
	a := &ParsedRule{IIf: "eth0"}
	b := &ParsedRule{IIf: "eth1"}
	c := &ParsedRule{}
	assert.False(t, RulesOverlap(a, b))
	assert.True(t, RulesOverlap(a, c))

	d := &ParsedRule{OIf: "wan0"}
	e := &ParsedRule{OIf: "wan0"}
	assert.True(t, RulesOverlap(d, e))
}

func TestRulesOverlapAddresses(t *testing.T) {
	a := &ParsedRule{SAddr: "10.0.0.0/8"}
	b := &ParsedRule{SAddr: "10.1.0.0/16"}
	c := &ParsedRule{SAddr: "172.16.0.0/12"}
	assert.True(t, RulesOverlap(a, b))
	assert.False(t, RulesOverlap(a, c))
}
