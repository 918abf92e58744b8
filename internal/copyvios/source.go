package copyvios

import (
	"net/http"
	"sync"
	"time"
)

// Source is the unit of work for one candidate URL within a check. Its
// result fields are written exactly once, by the worker that completes it or
// by cancellation, and may be read freely once Active reports false.
type Source struct {
	URL     string
	Domain  string
	Headers http.Header
	Timeout time.Duration

	// Confidence, Chain, and Delta hold default values (0.0 and empty
	// fingerprints) until the source completes. A cancelled source keeps
	// the defaults.
	Confidence float64
	Chain      Fingerprint
	Delta      Fingerprint

	workspace *Workspace

	mu     sync.Mutex
	sealed bool
	filled bool
	done   chan struct{}
}

func newSource(ws *Workspace, rawURL, domain string) *Source {
	return &Source{
		URL:       rawURL,
		Domain:    domain,
		Headers:   ws.headers,
		Timeout:   ws.urlTimeout,
		Chain:     ws.emptyChain,
		Delta:     ws.emptyDelta,
		workspace: ws,
		done:      make(chan struct{}),
	}
}

// Active reports whether the source still awaits processing.
func (s *Source) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// complete fills in the comparison result and releases all waiters. It is a
// no-op if the source was already completed or cancelled.
func (s *Source) complete(confidence float64, chain, delta Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.Confidence = confidence
	s.Chain = chain
	s.Delta = delta
	s.sealed = true
	s.filled = true
	close(s.done)
}

// Completed reports whether a comparison result was filled in. Cancelled and
// still-pending sources report false.
func (s *Source) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled
}

// Result returns the confidence and whether a comparison filled it in. Unlike
// reading the fields directly, it is safe while a worker may still be
// completing the source after the check's deadline.
func (s *Source) Result() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Confidence, s.filled
}

// cancel deactivates the source without filling in result data. Idempotent,
// including against a racing complete.
func (s *Source) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.sealed = true
	close(s.done)
}

// join blocks until the source completes or the absolute deadline passes.
// A zero deadline performs no waiting at all.
func (s *Source) join(until time.Time, clock Clock) {
	if until.IsZero() {
		return
	}
	wait := until.Sub(clock.Now())
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
	}
}
