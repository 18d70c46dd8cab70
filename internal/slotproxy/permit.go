package slotproxy

import (
	"context"
	"time"
)

// PendingPermit is the counting resource from spec §3 that bounds memory
// spent on never-admitted peers. It is implemented as a buffered channel
// token bucket, the same idiom the teacher uses for its receive-window
// bucket notifications.
type PendingPermit struct {
	tokens chan struct{}
}

// NewPendingPermit creates a permit pool with the given capacity.
func NewPendingPermit(capacity int) *PendingPermit {
	p := &PendingPermit{tokens: make(chan struct{}, capacity)}
	for i := 0; i < capacity; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

// Acquire blocks up to wait for a free token. Returns false if none became
// available in time.
func (p *PendingPermit) Acquire(wait time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	select {
	case <-p.tokens:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release returns a token to the pool. Safe to call exactly once per
// successful Acquire; the handler is responsible for the finally-style
// discipline spec §3 requires.
func (p *PendingPermit) Release() {
	select {
	case p.tokens <- struct{}{}:
	default:
		// Should never happen unless Release is called without a matching
		// Acquire; dropping silently keeps this best-effort like every
		// other teardown path in this package.
	}
}
