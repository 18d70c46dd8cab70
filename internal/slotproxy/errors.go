package slotproxy

import "errors"

// Error kinds from spec §7. Each drives the same policy: emit the canned
// 503, close the connection, never propagate past the handler.
var (
	ErrClientTimeout     = errors.New("slotproxy: client timed out before completing its request head")
	ErrClientEOF         = errors.New("slotproxy: client closed before completing its request head")
	ErrAdmissionDenied   = errors.New("slotproxy: score not better than the table's worst occupant")
	ErrSelfEvicted       = errors.New("slotproxy: score degraded past the table's worst occupant")
	ErrReplaced          = errors.New("slotproxy: displaced by a better-scoring admission")
	ErrBackendDialFailed = errors.New("slotproxy: backend dial failed")
	ErrBackendWriteFailed = errors.New("slotproxy: initial backend write failed")
	ErrPendingExhausted  = errors.New("slotproxy: no pending permit available")
	ErrHeaderTooLarge    = errors.New("slotproxy: request header exceeded the configured byte budget")
)
