// Package realtime streams live kernel traffic events to the websocket hub
// so an operator watching a deployment can see its effect immediately.
package realtime

import (
	"context"
	"net"
	"time"
)

// TrafficEvent represents a single packet captured from the kernel.
type TrafficEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SrcIP     string    `json:"src_ip"`
	DstIP     string    `json:"dst_ip"`
	SrcPort   int       `json:"src_port"`
	DstPort   int       `json:"dst_port"`
	Protocol  string    `json:"protocol"`
	Length    int       `json:"length"`
	Prefix    string    `json:"prefix"` // raw NFLOG prefix, e.g. "AFO:DROP:"
	Action    string    `json:"action"` // verdict parsed from the prefix
}

// TrafficCallback is called for every captured traffic event.
type TrafficCallback func(event TrafficEvent)

// NFLOGGroup is the netfilter log group rules must log to for the monitor
// to see their traffic.
const NFLOGGroup = 100

// protoName converts an IP protocol number to a human-readable name.
func protoName(proto int) string {
	switch proto {
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	case 1:
		return "ICMP"
	case 58:
		return "ICMPv6"
	case 47:
		return "GRE"
	case 50:
		return "ESP"
	default:
		return "OTHER"
	}
}

// ipFromBytes converts a raw 4- or 16-byte address to its string form.
func ipFromBytes(b []byte) string {
	switch len(b) {
	case 4:
		return net.IPv4(b[0], b[1], b[2], b[3]).String()
	case 16:
		return net.IP(b).String()
	}
	return ""
}

// Monitor captures live traffic and delivers events to a callback. The
// Linux implementation reads NFLOG over netlink; elsewhere Start captures
// nothing and blocks until its context is cancelled.
type Monitor interface {
	Start(ctx context.Context) error
	SetCallback(cb TrafficCallback)
}
