package copyvios

import "sync"

// domainQueue holds the pending sources for one registrable domain, oldest
// first. It is always accessed under the owning registry's lock.
type domainQueue struct {
	sources []*Source
}

func (q *domainQueue) push(src *Source) {
	q.sources = append(q.sources, src)
}

func (q *domainQueue) pop() *Source {
	src := q.sources[0]
	q.sources = q.sources[1:]
	return src
}

func (q *domainQueue) empty() bool {
	return len(q.sources) == 0
}

// dispatchEntry is one item on the unassigned list: a domain waiting for a
// worker to claim it, or a stop token (queue == nil) telling one worker to
// exit. Stop tokens share the FIFO so pending domains drain first.
type dispatchEntry struct {
	domain string
	queue  *domainQueue
}

// queueRegistry is the shared scheduling structure for one or more checks:
// a map from domain key to its queue plus the dispatch list of domains not
// currently claimed by any worker, all guarded by a single lock.
//
// Invariant: a domain appears in the map iff its queue is non-empty or is
// claimed by exactly one worker. Workers remove the entry the moment they
// drain a queue to empty.
type queueRegistry struct {
	mu         sync.Mutex
	domains    map[string]*domainQueue
	unassigned []dispatchEntry

	// ready is closed and replaced whenever the unassigned list grows,
	// waking every blocked worker to re-check for work.
	ready chan struct{}
}

func newQueueRegistry() *queueRegistry {
	return &queueRegistry{
		domains: make(map[string]*domainQueue),
		ready:   make(chan struct{}),
	}
}

// add inserts src under its domain key, publishing a new dispatch entry when
// the domain is unseen. It reports whether the source was appended to an
// existing queue.
func (r *queueRegistry) add(src *Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.domains[src.Domain]; ok {
		q.push(src)
		return true
	}
	q := &domainQueue{}
	q.push(src)
	r.domains[src.Domain] = q
	r.unassigned = append(r.unassigned, dispatchEntry{domain: src.Domain, queue: q})
	r.wake()
	return false
}

// pushStop enqueues a stop token consumed by exactly one worker.
func (r *queueRegistry) pushStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unassigned = append(r.unassigned, dispatchEntry{})
	r.wake()
}

// wake broadcasts to all waiting workers. Caller must hold r.mu.
func (r *queueRegistry) wake() {
	close(r.ready)
	r.ready = make(chan struct{})
}
