//go:build linux

package realtime

import (
	"context"
	"encoding/binary"
	"strings"
	"sync"
	"time"

	nflog "github.com/florianl/go-nflog/v2"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// NFLOGMonitor captures live traffic from the kernel using NFLOG over
// netlink. It sees only packets that a ruleset logs to NFLOGGroup, for
// example:
//
//	add rule inet filter input log group 100 prefix "AFO:ACCEPT:"
type NFLOGMonitor struct {
	logger   *logger.Logger
	mu       sync.RWMutex
	callback TrafficCallback
}

// NewMonitor creates a traffic monitor backed by NFLOG.
func NewMonitor(log *logger.Logger) *NFLOGMonitor {
	return &NFLOGMonitor{logger: log}
}

// SetCallback registers the function that receives every captured event.
func (m *NFLOGMonitor) SetCallback(cb TrafficCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

// Start opens the NFLOG netlink socket and blocks until ctx is cancelled.
func (m *NFLOGMonitor) Start(ctx context.Context) error {
	nf, err := nflog.Open(&nflog.Config{
		Group:       NFLOGGroup,
		Copymode:    nflog.CopyPacket,
		ReadTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer nf.Close()

	m.logger.Info("NFLOG monitor started", "group", NFLOGGroup)

	hookFn := func(attrs nflog.Attribute) int {
		m.mu.RLock()
		cb := m.callback
		m.mu.RUnlock()
		if cb != nil {
			cb(parseAttributes(attrs))
		}
		return 0
	}

	errFn := func(err error) int {
		if ctx.Err() == nil {
			m.logger.Error("NFLOG error", "error", err)
		}
		return 0
	}

	if err := nf.RegisterWithErrorFunc(ctx, hookFn, errFn); err != nil {
		return err
	}

	<-ctx.Done()
	m.logger.Info("NFLOG monitor stopped")
	return nil
}

// parseAttributes extracts a TrafficEvent from NFLOG attributes.
func parseAttributes(attrs nflog.Attribute) TrafficEvent {
	event := TrafficEvent{
		Timestamp: time.Now(),
		Protocol:  "OTHER",
		Action:    "ACCEPT",
	}

	if attrs.Prefix != nil {
		event.Prefix = strings.TrimRight(*attrs.Prefix, "\x00")
		event.Action = actionFromPrefix(event.Prefix)
	}

	if attrs.Payload == nil || len(*attrs.Payload) < 20 {
		return event
	}

	pkt := *attrs.Payload
	event.Length = len(pkt)

	version := pkt[0] >> 4
	if version != 4 {
		return event
	}

	ihl := int(pkt[0]&0x0F) * 4
	protoNum := int(pkt[9])
	event.Protocol = protoName(protoNum)
	event.SrcIP = ipFromBytes(pkt[12:16])
	event.DstIP = ipFromBytes(pkt[16:20])

	// TCP/UDP ports sit at the start of the transport header.
	if (protoNum == 6 || protoNum == 17) && len(pkt) >= ihl+4 {
		event.SrcPort = int(binary.BigEndian.Uint16(pkt[ihl : ihl+2]))
		event.DstPort = int(binary.BigEndian.Uint16(pkt[ihl+2 : ihl+4]))
	}

	return event
}

// actionFromPrefix parses the verdict out of prefixes like "AFO:DROP:".
func actionFromPrefix(prefix string) string {
	upper := strings.ToUpper(prefix)
	for _, verdict := range []string{"DROP", "REJECT", "ACCEPT"} {
		if strings.Contains(upper, verdict) {
			return verdict
		}
	}
	return "ACCEPT"
}

var _ Monitor = (*NFLOGMonitor)(nil)
