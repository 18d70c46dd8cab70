// Package slotproxy implements Core A: the slowloris-resistant slot
// admission engine and the per-connection state machine that drives it.
package slotproxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/ShuntaSakai/wsjfproxy/internal/config"
	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
)

// Dialer opens the backend connection for a single admitted peer.
type Dialer func(ctx context.Context) (net.Conn, error)

// Handler runs the full per-connection lifecycle from spec §4.2: accept,
// permit, score, admit, header completion, rewrite, dial, forward.
type Handler struct {
	connID uint64
	front  net.Conn

	table   *SlotTable
	permit  *PendingPermit
	dial    Dialer
	cfg     config.SlotProxy
	scorer  scorer
	metrics *metrics.SlotProxy
	log     *slog.Logger
}

// NewHandler builds a handler for one freshly accepted connection. scorer
// is chosen by the listener once per process from cfg.ScoreMode.
func NewHandler(connID uint64, front net.Conn, table *SlotTable, permit *PendingPermit, dial Dialer, cfg config.SlotProxy, sc scorer, m *metrics.SlotProxy, log *slog.Logger) *Handler {
	return &Handler{
		connID:  connID,
		front:   front,
		table:   table,
		permit:  permit,
		dial:    dial,
		cfg:     cfg,
		scorer:  sc,
		metrics: m,
		log:     log.With("conn_id", connID, "remote", front.RemoteAddr().String()),
	}
}

// Run drives the handler to completion. It never returns an error: every
// failure path is resolved internally into a 503-and-close per spec §7.
func (h *Handler) Run(ctx context.Context) {
	if !h.permit.Acquire(h.cfg.PermitWait) {
		h.log.Debug("pending permit exhausted")
		h.reject503()
		return
	}

	admitted := false
	defer func() {
		if !admitted {
			h.permit.Release()
		}
	}()

	headerBuf, t1, ok := h.readFirst()
	if !ok {
		return
	}

	slot := &Slot{ConnID: h.connID, Front: h.front}
	headComplete := bytes.Contains(headerBuf, []byte(crlfcrlf))

	p, admitNow := h.scorer.first(t1, headComplete)
	if !admitNow {
		t2, more, ok := h.readWithin(h.cfg.SecondTimeout)
		if !ok {
			return
		}
		headerBuf = append(headerBuf, more...)
		headComplete = headComplete || bytes.Contains(headerBuf, []byte(crlfcrlf))
		p = h.scorer.second(t2)
	}
	slot.P = p

	ok = h.admit(slot)
	if !ok {
		return
	}
	admitted = true
	h.permit.Release()

	if !headComplete {
		var ok2 bool
		headerBuf, ok2 = h.readHeaderTail(t1, headerBuf)
		if !ok2 {
			return
		}
	}

	h.forward(ctx, slot, headerBuf)
}

// readFirst blocks for up to FIRST_TIMEOUT for the first non-empty read.
func (h *Handler) readFirst() ([]byte, time.Time, bool) {
	buf, t, err := h.readOnce(h.cfg.FirstTimeout)
	if err != nil {
		h.log.Debug("first read failed", "err", err)
		h.reject503()
		return nil, time.Time{}, false
	}
	return buf, t, true
}

// readWithin blocks for up to d for one more read.
func (h *Handler) readWithin(d time.Duration) (time.Time, []byte, bool) {
	buf, t, err := h.readOnce(d)
	if err != nil {
		h.log.Debug("second read failed", "err", err)
		h.reject503()
		return time.Time{}, nil, false
	}
	return t, buf, true
}

// readOnce performs a single Read with the given timeout budget, returning
// client-timeout or client-EOF as appropriate.
func (h *Handler) readOnce(timeout time.Duration) ([]byte, time.Time, error) {
	_ = h.front.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, h.cfg.BufferSize)
	n, err := h.front.Read(buf)
	t := time.Now()
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		if isTimeout(err) {
			return nil, t, ErrClientTimeout
		}
		return nil, t, ErrClientEOF
	}
	return buf[:n], t, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// admit asks the SlotTable for a spot, evicting the displaced occupant (if
// any) in the background since that write/close is no longer on our
// critical path.
func (h *Handler) admit(slot *Slot) bool {
	ok, evicted := h.table.Admit(slot)
	if !ok {
		h.metrics.Rejections.Inc()
		h.log.Debug("admission denied", "p", slot.P)
		h.reject503()
		return false
	}
	h.metrics.Admissions.Inc()
	h.metrics.Occupancy.Set(float64(h.table.Len()))
	if evicted != nil {
		h.metrics.Evictions.Inc()
		h.log.Debug("displaced an occupant", "evicted_conn_id", evicted.ConnID, "evicted_p", evicted.P, "new_p", slot.P)
		go h.table.Evict(evicted)
		h.metrics.Responses503.Inc()
	}
	return true
}

// readHeaderTail keeps reading until CRLFCRLF terminates the request head
// or a limit from spec §4.2 is hit: HARD_HEADER_TIMEOUT measured from t1,
// MAX_HEADER_BYTES accumulated, or (under avg_gap) self-eviction.
func (h *Handler) readHeaderTail(t1 time.Time, headerBuf []byte) ([]byte, bool) {
	deadline := t1.Add(h.cfg.HardHeaderTimeout)
	for !bytes.Contains(headerBuf, []byte(crlfcrlf)) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			h.log.Debug("hard header timeout")
			h.abort(ErrClientTimeout)
			return nil, false
		}

		_ = h.front.SetReadDeadline(time.Now().Add(remaining))
		buf := make([]byte, h.cfg.BufferSize)
		n, err := h.front.Read(buf)
		now := time.Now()
		if n > 0 {
			headerBuf = append(headerBuf, buf[:n]...)
			if len(headerBuf) > h.cfg.MaxHeaderBytes {
				h.log.Debug("header exceeded byte budget", "bytes", len(headerBuf))
				h.abort(ErrHeaderTooLarge)
				return nil, false
			}

			if h.scorer.tracksUpdates() {
				pEst := h.scorer.update(now)
				if self := h.table.UpdatePAndMaybeEvictSelf(h.connID, pEst); self != nil {
					h.metrics.SelfEvicts.Inc()
					h.log.Debug("self-evicted", "p", pEst)
					h.table.Evict(self)
					h.metrics.Responses503.Inc()
					h.metrics.Occupancy.Set(float64(h.table.Len()))
					return nil, false
				}
			}
		}
		if err != nil {
			if n == 0 {
				if isTimeout(err) {
					h.abort(ErrClientTimeout)
				} else {
					h.abort(ErrClientEOF)
				}
				return nil, false
			}
		}
	}
	return headerBuf, true
}

// forward rewrites the buffered request, dials the backend, and enters
// full-duplex byte forwarding.
func (h *Handler) forward(ctx context.Context, slot *Slot, headerBuf []byte) {
	rewritten := RewriteHeaders(headerBuf)

	back, err := h.dial(ctx)
	if err != nil {
		h.metrics.DialFailures.Inc()
		h.log.Debug("backend dial failed", "err", err)
		h.abort(ErrBackendDialFailed)
		return
	}

	if _, err := back.Write(rewritten); err != nil {
		h.log.Debug("initial backend write failed", "err", err)
		_ = back.Close()
		h.abort(ErrBackendWriteFailed)
		return
	}

	pumps := NewPumps(ctx, h.front, back, h.cfg.BufferSize)
	h.table.AttachBackend(h.connID, back, pumps)
	pumps.Wait()
	h.table.Release(h.connID)
	h.metrics.Occupancy.Set(float64(h.table.Len()))
}

// reject503 is used before admission: no slot exists yet, so there is
// nothing to release beyond the connection itself.
func (h *Handler) reject503() {
	h.metrics.Responses503.Inc()
	writeServiceUnavailable(h.front)
	_ = h.front.Close()
}

// abort is used after admission: the slot must be released from the table
// (not evicted — this isn't a score-based replacement), but the 503 has to
// go out over h.front before Release's teardown closes it, same ordering
// as reject503 and SlotTable.Evict.
func (h *Handler) abort(kind error) {
	h.log.Debug("aborting admitted connection", "kind", kind)
	h.metrics.Responses503.Inc()
	writeServiceUnavailable(h.front)
	h.table.Release(h.connID)
	h.metrics.Occupancy.Set(float64(h.table.Len()))
}
