//go:build !linux

package realtime

import (
	"context"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// NFLOGMonitor is a no-op outside Linux; NFLOG is a netfilter facility.
type NFLOGMonitor struct {
	logger *logger.Logger
}

// NewMonitor creates the stub monitor.
func NewMonitor(log *logger.Logger) *NFLOGMonitor {
	return &NFLOGMonitor{logger: log}
}

// SetCallback is a no-op on this platform.
func (m *NFLOGMonitor) SetCallback(TrafficCallback) {}

// Start logs that live capture is unavailable and blocks until cancelled.
func (m *NFLOGMonitor) Start(ctx context.Context) error {
	m.logger.Warn("Live traffic monitoring requires Linux NFLOG; running without it")
	<-ctx.Done()
	return nil
}

var _ Monitor = (*NFLOGMonitor)(nil)
