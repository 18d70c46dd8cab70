// Package wsjf implements Core B: the WSJF priority scheduler that
// multiplexes many client streams onto a single backend pipe, ordering
// line-delimited records by inverse throughput with a stable FIFO
// tie-break.
package wsjf

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/ShuntaSakai/wsjfproxy/internal/config"
	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
)

// Server owns the queue, the session registry, and the single sender loop,
// and launches one ClientReader per accepted peer.
type Server struct {
	cfg     config.WSJFScheduler
	queue   *Queue
	reg     *Registry
	metrics *metrics.WSJF
	log     *slog.Logger
}

// NewServer wires up a fresh Server from config.
func NewServer(cfg config.WSJFScheduler, m *metrics.WSJF, log *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		queue:   NewQueue(),
		reg:     NewRegistry(),
		metrics: m,
		log:     log,
	}
}

// Serve starts the sender loop and monitor, then runs the accept loop
// until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	sender := NewSender(s.cfg, s.queue, s.metrics, s.log)
	go sender.Run(ctx)

	monitor := NewMonitor(s.reg, s.cfg.MonitorInterval, s.log)
	go monitor.Run(ctx)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			s.log.Warn("accept error", "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		session := NewSession(conn.RemoteAddr().String())
		s.reg.Add(session)
		reader := NewClientReader(conn, session, s.queue, s.metrics, s.log)
		go func() {
			defer s.reg.Remove(session)
			reader.Run()
		}()
	}
}
