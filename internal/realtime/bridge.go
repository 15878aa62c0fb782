package realtime

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/websocket"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// maxEventsPerSecond caps how many traffic events are forwarded to clients
// per second so a busy host cannot flood every connected session.
const maxEventsPerSecond = 20

// Bridge connects the traffic monitor to the WebSocket hub, filtering
// internal traffic and rate-limiting the stream.
type Bridge struct {
	monitor Monitor
	hub     *websocket.Hub
	logger  *logger.Logger
	emitted atomic.Int64 // events emitted in the current one-second window
}

// NewBridge creates a bridge between the traffic monitor and WebSocket hub.
func NewBridge(monitor Monitor, hub *websocket.Hub, log *logger.Logger) *Bridge {
	return &Bridge{monitor: monitor, hub: hub, logger: log}
}

// Run wires the monitor callback to the hub and starts capturing. It blocks
// until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.emitted.Store(0)
			}
		}
	}()

	b.monitor.SetCallback(func(event TrafficEvent) {
		if isInternalTraffic(event.SrcIP, event.DstIP) {
			return
		}
		if b.emitted.Add(1) > int64(maxEventsPerSecond) {
			return
		}
		b.hub.EmitTraffic(event.SrcIP, event.DstIP, event.Protocol, event.Action, event.DstPort)
	})

	b.logger.Info("Traffic bridge started", "sink", "websocket")
	return b.monitor.Start(ctx)
}

// isInternalTraffic reports loopback, link-local, multicast, and self-talk:
// traffic no operator needs in the live stream.
func isInternalTraffic(srcIP, dstIP string) bool {
	src := net.ParseIP(srcIP)
	dst := net.ParseIP(dstIP)
	if src == nil || dst == nil {
		return false
	}

	switch {
	case src.IsLoopback() || dst.IsLoopback():
		return true
	case src.Equal(dst):
		return true
	case src.IsLinkLocalUnicast() || dst.IsLinkLocalUnicast():
		return true
	case dst.IsMulticast() || dst.IsUnspecified():
		return true
	}
	return false
}
