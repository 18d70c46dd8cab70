package slotproxy

import "time"

// scorer is the polymorphic P-mode contract from spec §9: a compile-time
// choice between two distinct admission strategies, never a runtime
// branch. The listener builds one scorer per accepted connection from
// whichever constructor Config.ScoreMode selects.
type scorer interface {
	// first is called the instant the first non-empty read returns. It may
	// request immediate admission (avg_gap's CRLFCRLF fast path) instead of
	// waiting for a second read.
	first(t time.Time, headComplete bool) (p float64, admitNow bool)

	// second is called once the second read arrives. Not invoked if first
	// already returned admitNow.
	second(t time.Time) (p float64)

	// update is called once per subsequent read while still collecting the
	// header, after admission. It returns the refreshed running estimate.
	// Only called when tracksUpdates returns true.
	update(t time.Time) (p float64)

	// tracksUpdates reports whether this mode refines P (and therefore can
	// self-evict) after admission. strict_slide admits exactly once and
	// never updates again; avg_gap keeps refining until the header
	// completes.
	tracksUpdates() bool
}

// strictSlideScorer fixes P at the first-to-second-read gap and never
// updates it again, per spec §4.2.
type strictSlideScorer struct {
	t1 time.Time

	// acceptSingleSegment resolves the open question in spec §9: whether a
	// request whose head arrives entirely in the first read should be
	// admitted immediately (true) instead of waiting out SECOND_TIMEOUT and
	// timing out (false, matching observed source behavior).
	acceptSingleSegment bool
}

func newStrictSlideScorer(acceptSingleSegment bool) *strictSlideScorer {
	return &strictSlideScorer{acceptSingleSegment: acceptSingleSegment}
}

func (s *strictSlideScorer) first(t time.Time, headComplete bool) (float64, bool) {
	s.t1 = t
	if headComplete && s.acceptSingleSegment {
		return 0, true
	}
	return 0, false
}

func (s *strictSlideScorer) second(t time.Time) float64 {
	return t.Sub(s.t1).Seconds()
}

func (s *strictSlideScorer) update(time.Time) float64 {
	// Never called: tracksUpdates is false, so the handler never invokes
	// update on this mode. Present only to satisfy the scorer interface.
	panic("slotproxy: update called on a strict_slide scorer")
}

func (s *strictSlideScorer) tracksUpdates() bool { return false }

// avgGapScorer admits as soon as possible and keeps refining P as the
// running mean of inter-read gaps, per spec §4.2.
type avgGapScorer struct {
	t1, tPrev time.Time
	sumGap    float64
	gapCount  int
}

func newAvgGapScorer() *avgGapScorer {
	return &avgGapScorer{}
}

func (s *avgGapScorer) first(t time.Time, headComplete bool) (float64, bool) {
	s.t1 = t
	s.tPrev = t
	if headComplete {
		return 0, true
	}
	return 0, false
}

func (s *avgGapScorer) second(t time.Time) float64 {
	s.tPrev = t
	return t.Sub(s.t1).Seconds()
}

func (s *avgGapScorer) update(t time.Time) float64 {
	gap := t.Sub(s.tPrev).Seconds()
	s.tPrev = t
	s.sumGap += gap
	s.gapCount++
	return s.sumGap / float64(s.gapCount)
}

func (s *avgGapScorer) tracksUpdates() bool { return true }
