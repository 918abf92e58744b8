package copyvios

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Shared test doubles for the engine tests.

// sizeFP is a fingerprint with a fixed size.
type sizeFP struct {
	size int
}

func (f sizeFP) Size() int { return f.size }

// textFP remembers the text it was built from so stubModel can map fetched
// text to an intersection size.
type textFP struct {
	text string
}

func (f textFP) Size() int { return len(f.text) }

// stubModel resolves intersections from a fixed text -> delta-size table.
type stubModel struct {
	deltas map[string]int
}

func (m stubModel) Build(text string) Fingerprint {
	return textFP{text: text}
}

func (m stubModel) Intersect(_, b Fingerprint) Fingerprint {
	if t, ok := b.(textFP); ok {
		return sizeFP{size: m.deltas[t.text]}
	}
	return sizeFP{}
}

// fakeFetcher serves canned text per URL and records per-host concurrency
// and completion order.
type fakeFetcher struct {
	texts map[string]string
	delay time.Duration

	mu          sync.Mutex
	inflight    map[string]int
	maxInflight map[string]int
	order       []string
}

func newFakeFetcher(texts map[string]string, delay time.Duration) *fakeFetcher {
	return &fakeFetcher{
		texts:       texts,
		delay:       delay,
		inflight:    make(map[string]int),
		maxInflight: make(map[string]int),
	}
}

func (f *fakeFetcher) FetchText(_ context.Context, rawURL string, _ http.Header, _ time.Duration) (string, bool) {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}

	f.mu.Lock()
	f.inflight[host]++
	if f.inflight[host] > f.maxInflight[host] {
		f.maxInflight[host] = f.inflight[host]
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inflight[host]--
	f.order = append(f.order, rawURL)
	text, ok := f.texts[rawURL]
	f.mu.Unlock()
	return text, ok
}

func (f *fakeFetcher) fetchOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

func (f *fakeFetcher) maxConcurrency(host string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight[host]
}
