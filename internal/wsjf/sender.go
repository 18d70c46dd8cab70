package wsjf

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/ShuntaSakai/wsjfproxy/internal/config"
	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
)

// Sender is the single process-wide sender loop from spec §4.3: it owns
// exactly one backend connection, drains whatever the backend writes back
// (discarded — response routing is out of scope), and writes queued
// records in priority order.
type Sender struct {
	cfg     config.WSJFScheduler
	queue   *Queue
	metrics *metrics.WSJF
	log     *slog.Logger
}

// NewSender builds a sender bound to queue. Exactly one Sender should run
// per process, per spec §5.
func NewSender(cfg config.WSJFScheduler, q *Queue, m *metrics.WSJF, log *slog.Logger) *Sender {
	return &Sender{cfg: cfg, queue: q, metrics: m, log: log}
}

// Run blocks until ctx is cancelled, reconnecting to the backend on any
// write failure per spec §4.3's error policy.
func (s *Sender) Run(ctx context.Context) {
	for ctx.Err() == nil {
		back, err := s.connect(ctx)
		if err != nil {
			return // ctx was cancelled while waiting to (re)connect
		}

		drainCtx, cancelDrain := context.WithCancel(ctx)
		go s.drain(drainCtx, back)

		s.sendUntilFailure(ctx, back)
		cancelDrain()
		_ = back.Close()
	}
}

// connect retries with unbounded 1s-interval backoff until it succeeds or
// ctx is cancelled, per spec §4.3 step 1.
func (s *Sender) connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", s.cfg.BackendAddr)
		if err == nil {
			return conn, nil
		}
		s.metrics.ReconnectCount.Inc()
		s.log.Warn("backend dial failed, retrying", "err", err, "delay", s.cfg.ReconnectDelay)
		select {
		case <-time.After(s.cfg.ReconnectDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// drain reads and discards the backend-to-proxy direction for the
// lifetime of the connection. Responses are never routed back to clients
// in this core, per spec §4.3's rationale.
func (s *Sender) drain(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(0, 1))
	})
	defer stop()

	buf := make([]byte, s.cfg.BufferSize)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

// sendUntilFailure dequeues and writes records to back until a write
// fails or ctx is cancelled. On write failure the in-flight item is
// requeued with its original (priority, seq) so ordering survives the
// reconnect, per spec §4.3 step 3 and testable scenario 6.
func (s *Sender) sendUntilFailure(ctx context.Context, back net.Conn) {
	for {
		item, err := s.queue.Pop(ctx)
		if err != nil {
			return
		}

		if s.cfg.SendDelay > 0 {
			select {
			case <-time.After(s.cfg.SendDelay):
			case <-ctx.Done():
				s.queue.Push(item)
				return
			}
		}

		if _, err := back.Write(item.Payload); err != nil {
			s.log.Warn("backend write failed, requeuing", "err", err, "seq", item.Seq, "tag", item.Tag, "cid", item.CID)
			s.metrics.Requeued.Inc()
			s.queue.Push(item)
			return
		}
		s.metrics.Sent.Inc()
		s.metrics.QueueDepth.Set(float64(s.queue.Len()))
	}
}
