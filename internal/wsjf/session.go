package wsjf

import (
	"sync"
	"time"
)

// Session is the per-peer record from spec §3: cumulative throughput
// tracking that produces the WSJF priority for every record it sends.
type Session struct {
	mu sync.Mutex

	remote    string
	startTime time.Time
	totalBytes int64
	lastScore float64
}

// NewSession starts a session clock for a freshly accepted peer.
func NewSession(remote string) *Session {
	return &Session{remote: remote, startTime: time.Now()}
}

// Remote returns the peer address this session tracks, for logging.
func (s *Session) Remote() string {
	return s.remote
}

// Score implements spec §3's S = 1 / (bits_per_second + 1), accounting n
// additional bytes just delivered before computing the new priority.
// Lower is better: the higher a peer's throughput, the lower its score, so
// its records sort ahead of those from slower peers in the queue.
func (s *Session) Score(n int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalBytes += int64(n)
	duration := time.Since(s.startTime).Seconds()
	if duration < 0.1 {
		duration = 0.1
	}
	bps := float64(s.totalBytes) * 8 / duration
	s.lastScore = 1.0 / (bps + 1.0)
	return s.lastScore
}

// LastScore returns the most recently computed score without touching
// totalBytes, for the periodic monitor snapshot.
func (s *Session) LastScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScore
}
