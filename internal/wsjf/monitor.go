package wsjf

import (
	"context"
	"log/slog"
	"time"
)

// Monitor is the Go equivalent of the original's monitor_task: once per
// interval it logs every live session's last score (lower is better), for
// operators watching the scheduler under load.
type Monitor struct {
	reg      *Registry
	interval time.Duration
	log      *slog.Logger
}

// NewMonitor builds a monitor that snapshots reg every interval.
func NewMonitor(reg *Registry, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{reg: reg, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := m.reg.Snapshot()
			if len(sessions) == 0 {
				continue
			}
			for _, s := range sessions {
				m.log.Debug("session score", "remote", s.Remote(), "score", s.LastScore())
			}
		}
	}
}
