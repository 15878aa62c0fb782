// Package network collects the host's network state: interfaces, traffic
// counters, the active nftables ruleset, and a netlink inventory of tables
// and chains.
package network

import "time"

// Interface describes one host network interface. Built by the collector
// and immutable afterwards.
type Interface struct {
	Name          string   `json:"name"`
	MACAddress    string   `json:"mac_address,omitempty"`
	IPv4Addresses []string `json:"ipv4_addresses"`
	IPv6Addresses []string `json:"ipv6_addresses"`
	State         string   `json:"state"` // UP, DOWN, UNKNOWN
	MTU           int      `json:"mtu"`
	VLANID        int      `json:"vlan_id,omitempty"`
	RxBytes       uint64   `json:"rx_bytes"`
	TxBytes       uint64   `json:"tx_bytes"`
}

// TableInfo summarizes one nftables table discovered over netlink.
type TableInfo struct {
	Family string   `json:"family"`
	Name   string   `json:"name"`
	Chains []string `json:"chains"`
}

// Context is a point-in-time snapshot of the host's network state.
// Immutable once returned.
type Context struct {
	Interfaces    []Interface `json:"interfaces"`
	ActiveRuleset string      `json:"active_ruleset"`
	Tables        []TableInfo `json:"tables,omitempty"`
	Hostname      string      `json:"hostname"`
	Timestamp     time.Time   `json:"timestamp"`
}
