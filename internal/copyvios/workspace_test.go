package copyvios

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkspace_EnqueueDeduplicates(t *testing.T) {
	t.Parallel()

	ws, err := New(Config{
		Model:      stubModel{},
		Article:    sizeFP{size: 1000},
		Fetcher:    newFakeFetcher(nil, 0),
		NumWorkers: 1,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue([]string{
		"https://example.com/a",
		"https://example.com/a",
		"https://example.com/b",
	}, nil)
	ws.Enqueue([]string{"https://example.com/a"}, nil)

	require.Len(t, ws.Sources(), 2)
}

func TestWorkspace_EnqueueHonorsExclusion(t *testing.T) {
	t.Parallel()

	ws, err := New(Config{
		Model:      stubModel{},
		Article:    sizeFP{size: 1000},
		Fetcher:    newFakeFetcher(nil, 0),
		NumWorkers: 1,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue([]string{
		"https://mirror.example.com/a",
		"https://fresh.example.org/b",
	}, func(rawURL string) bool {
		return rawURL == "https://mirror.example.com/a"
	})

	sources := ws.Sources()
	require.Len(t, sources, 1)
	require.Equal(t, "https://fresh.example.org/b", sources[0].URL)
}

func TestWorkspace_BestMatchReferenceScenario(t *testing.T) {
	t.Parallel()

	// Article fingerprint size 1000; the candidate's intersection is 600
	// units, so the delta curve wins with (600-50)/600.
	const candidate = "https://suspect.example.com/article"
	fetcher := newFakeFetcher(map[string]string{candidate: "copied text"}, 0)
	ws, err := New(Config{
		Model:         stubModel{deltas: map[string]int{"copied text": 600}},
		Article:       sizeFP{size: 1000},
		MinConfidence: 0.9,
		Until:         time.Now().Add(5 * time.Second),
		Fetcher:       fetcher,
		NumWorkers:    2,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue([]string{candidate}, nil)
	ws.Wait()

	best := ws.Best()
	require.Equal(t, candidate, best.URL)
	require.InDelta(t, 550.0/600.0, best.Confidence, 1e-9)
	require.True(t, best.Completed())
	require.True(t, ws.Finished(), "0.9167 meets the 0.9 threshold")
}

func TestWorkspace_SameDomainNeverFetchedConcurrently(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://one.example.com/1",
		"https://one.example.com/2",
		"https://one.example.com/3",
		"https://two.example.org/1",
		"https://two.example.org/2",
	}
	fetcher := newFakeFetcher(nil, 20*time.Millisecond)
	ws, err := New(Config{
		Model:      stubModel{},
		Article:    sizeFP{size: 1000},
		Until:      time.Now().Add(5 * time.Second),
		Fetcher:    fetcher,
		NumWorkers: 4,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue(urls, nil)

	require.Eventually(t, func() bool {
		return len(fetcher.fetchOrder()) == len(urls)
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, fetcher.maxConcurrency("one.example.com"))
	require.Equal(t, 1, fetcher.maxConcurrency("two.example.org"))
}

func TestWorkspace_SingleWorkerProcessesDomainFIFO(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	}
	texts := make(map[string]string, len(urls))
	for _, u := range urls {
		texts[u] = "text for " + u
	}
	fetcher := newFakeFetcher(texts, 0)
	deltas := make(map[string]int, len(urls))
	for _, text := range texts {
		deltas[text] = 1
	}
	ws, err := New(Config{
		Model:      stubModel{deltas: deltas},
		Article:    sizeFP{size: 1000},
		Until:      time.Now().Add(5 * time.Second),
		Fetcher:    fetcher,
		NumWorkers: 1,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue(urls, nil)
	ws.Wait()

	require.Equal(t, urls, fetcher.fetchOrder())
	for _, src := range ws.Sources() {
		require.True(t, src.Completed())
	}
}

func TestWorkspace_FinishEarlyCancelsRemaining(t *testing.T) {
	t.Parallel()

	// One worker, one domain: the first source scores 0.97 and every
	// source queued behind it must be cancelled without being fetched.
	urls := []string{
		"https://example.com/hit",
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/4",
	}
	// The fetch delay guarantees all four URLs are enqueued before the
	// first comparison can finish the check.
	fetcher := newFakeFetcher(map[string]string{urls[0]: "smoking gun"}, 50*time.Millisecond)
	ws, err := New(Config{
		Model:         stubModel{deltas: map[string]int{"smoking gun": 1900}},
		Article:       sizeFP{size: 1000},
		MinConfidence: 0.95,
		Until:         time.Now().Add(10 * time.Second),
		Fetcher:       fetcher,
		NumWorkers:    1,
	})
	require.NoError(t, err)
	defer ws.Close()

	start := time.Now()
	ws.Enqueue(urls, nil)
	ws.Wait()

	require.Less(t, time.Since(start), 5*time.Second, "wait must return well before the deadline")
	require.True(t, ws.Finished())

	best := ws.Best()
	require.Equal(t, urls[0], best.URL)
	require.InDelta(t, 1850.0/1900.0, best.Confidence, 1e-9)

	for _, src := range ws.Sources()[1:] {
		require.False(t, src.Active())
		require.False(t, src.Completed(), "cancelled sources keep default results")
		require.Zero(t, src.Confidence)
	}

	// Once finished, further enqueues are ignored.
	ws.Enqueue([]string{"https://example.com/late"}, nil)
	require.Len(t, ws.Sources(), len(urls))
}

func TestWorkspace_NoTextNeverBecomesBest(t *testing.T) {
	t.Parallel()

	// The fetcher has no text for this URL; the source stays incomplete
	// and the placeholder best is untouched.
	fetcher := newFakeFetcher(nil, 0)
	ws, err := New(Config{
		Model:      stubModel{},
		Article:    sizeFP{size: 1000},
		Until:      time.Now().Add(200 * time.Millisecond),
		Fetcher:    fetcher,
		NumWorkers: 1,
	})
	require.NoError(t, err)
	defer ws.Close()

	ws.Enqueue([]string{"https://example.com/empty"}, nil)
	ws.Wait()

	best := ws.Best()
	require.Empty(t, best.URL)
	require.Zero(t, best.Confidence)

	src := ws.Sources()[0]
	require.Zero(t, src.Confidence)
	require.False(t, src.Completed())
}

func TestWorkspace_DomainKeyFallback(t *testing.T) {
	t.Parallel()

	ws, err := New(Config{
		Model:      stubModel{},
		Article:    sizeFP{size: 10},
		Fetcher:    newFakeFetcher(nil, 0),
		NumWorkers: 1,
	})
	require.NoError(t, err)
	defer ws.Close()

	require.Equal(t, "example.com", ws.domainKey("https://deep.sub.example.com/path"))
	require.Equal(t, "example.com", ws.domainKey("https://example.com/"))
}

func TestWorkspace_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Article: sizeFP{size: 1}, Fetcher: newFakeFetcher(nil, 0)})
	require.Error(t, err)

	_, err = New(Config{Model: stubModel{}, Fetcher: newFakeFetcher(nil, 0)})
	require.Error(t, err)

	_, err = New(Config{Model: stubModel{}, Article: sizeFP{size: 1}})
	require.Error(t, err, "fetcher required without a shared pool")
}
