package slotproxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/ShuntaSakai/wsjfproxy/internal/config"
	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
)

// Server owns the listener, the shared SlotTable and PendingPermit, and
// launches one Handler per accepted peer. It is the single owner of every
// piece of shared mutable state spec §9 calls out.
type Server struct {
	cfg     config.SlotProxy
	table   *SlotTable
	permit  *PendingPermit
	metrics *metrics.SlotProxy
	log     *slog.Logger

	nextConnID atomic.Uint64
}

// NewServer wires up a fresh Server from config. Construction never fails:
// invalid config is rejected by config.LoadSlotProxy before this is called.
func NewServer(cfg config.SlotProxy, m *metrics.SlotProxy, log *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		table:   NewSlotTable(cfg.MaxSlots),
		permit:  NewPendingPermit(cfg.MaxPending),
		metrics: m,
		log:     log,
	}
}

func (s *Server) newScorer() scorer {
	switch s.cfg.ScoreMode {
	case config.StrictSlide:
		return newStrictSlideScorer(s.cfg.StrictSlideAcceptSingleSegment)
	default:
		return newAvgGapScorer()
	}
}

func (s *Server) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", s.cfg.BackendAddr)
}

// Serve runs the accept loop until ctx is cancelled or the listener fails
// permanently. Every accepted connection is handed to its own Handler
// goroutine; Serve never blocks on a single connection's lifecycle.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
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

		connID := s.nextConnID.Add(1)
		h := NewHandler(connID, conn, s.table, s.permit, s.dial, s.cfg, s.newScorer(), s.metrics, s.log)
		go h.Run(ctx)
	}
}
