package wsjf

import (
	"bufio"
	"io"
	"log/slog"
	"net"

	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
)

// ClientReader implements spec §4.3's client reader: read newline-delimited
// records, score them against the peer's session, and enqueue them onto
// the shared priority queue.
type ClientReader struct {
	conn    net.Conn
	session *Session
	queue   *Queue
	metrics *metrics.WSJF
	log     *slog.Logger
}

// NewClientReader builds a reader for one freshly accepted peer.
func NewClientReader(conn net.Conn, session *Session, q *Queue, m *metrics.WSJF, log *slog.Logger) *ClientReader {
	return &ClientReader{
		conn:    conn,
		session: session,
		queue:   q,
		metrics: m,
		log:     log.With("remote", session.Remote()),
	}
}

// Run reads until end-of-stream, enqueuing one Item per line. It closes
// the connection when done; it never returns an error, matching Core A's
// no-error-leaves-the-handler discipline.
func (c *ClientReader) Run() {
	defer func() { _ = c.conn.Close() }()

	r := bufio.NewReader(c.conn)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			c.enqueue(line)
		}
		if err != nil {
			if err != io.EOF {
				c.log.Debug("client read error", "err", err)
			}
			return
		}
	}
}

func (c *ClientReader) enqueue(line []byte) {
	priority := c.session.Score(len(line))
	tag, cid := ParseRecord(line)

	payload := make([]byte, len(line))
	copy(payload, line)

	item := &Item{
		Priority: priority,
		Seq:      c.queue.NextSeq(),
		Payload:  payload,
		Session:  c.session,
		Tag:      tag,
		CID:      cid,
	}
	c.queue.Push(item)
	c.metrics.Enqueued.Inc()
	c.metrics.QueueDepth.Set(float64(c.queue.Len()))
}
