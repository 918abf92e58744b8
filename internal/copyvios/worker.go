package copyvios

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/theassyrian/earwigbot/internal/telemetry"
)

var (
	// errStopped signals that the worker consumed an explicit stop token.
	errStopped = errors.New("stop token received")
	// errNoWork signals that the deadline passed with nothing to claim.
	errNoWork = errors.New("no work available before deadline")
)

// Worker is a long-lived execution unit. It repeatedly claims a domain from
// the registry (or continues one it already owns), drains its sources in
// FIFO order, fetches and compares each one, then returns for more. It exits
// on a stop token or when its deadline elapses, without signaling upward.
type Worker struct {
	name    string
	queues  *queueRegistry
	fetcher SourceFetcher
	limiter Limiter
	logger  *zap.Logger
	until   time.Time

	// Claimed domain, nil when unassigned. Only touched by the worker's
	// own goroutine, under the registry lock.
	domain string
	queue  *domainQueue
}

func newWorker(name string, queues *queueRegistry, fetcher SourceFetcher, limiter Limiter, logger *zap.Logger, until time.Time) *Worker {
	return &Worker{
		name:    name,
		queues:  queues,
		fetcher: fetcher,
		limiter: limiter,
		logger:  logger.With(zap.String("worker", name)),
		until:   until,
	}
}

// start launches the worker goroutine.
func (w *Worker) start() {
	go w.run()
}

func (w *Worker) run() {
	telemetry.WorkerStarted()
	defer telemetry.WorkerStopped()
	w.logger.Debug("worker started")
	for {
		src, err := w.dequeue()
		if err != nil {
			w.logger.Debug("worker exiting", zap.String("reason", err.Error()))
			return
		}
		w.process(src)
	}
}

// dequeue claims the next active source, preferring the domain the worker
// already owns. Sources found inactive are discarded in a loop rather than
// recursively, so cancellation storms cannot grow the stack.
func (w *Worker) dequeue() (*Source, error) {
	r := w.queues
	for {
		r.mu.Lock()
		if w.queue != nil {
			src := w.queue.pop()
			if w.queue.empty() {
				delete(r.domains, w.domain)
				w.domain = ""
				w.queue = nil
			}
			r.mu.Unlock()
			if !src.Active() {
				continue
			}
			return src, nil
		}
		if len(r.unassigned) > 0 {
			entry := r.unassigned[0]
			r.unassigned = r.unassigned[1:]
			if entry.queue == nil {
				r.mu.Unlock()
				return nil, errStopped
			}
			src := entry.queue.pop()
			if entry.queue.empty() {
				delete(r.domains, entry.domain)
			} else {
				w.domain = entry.domain
				w.queue = entry.queue
			}
			r.mu.Unlock()
			if !src.Active() {
				continue
			}
			return src, nil
		}
		ready := r.ready
		r.mu.Unlock()

		if err := w.await(ready); err != nil {
			return nil, err
		}
	}
}

// await blocks until new work is broadcast or the worker's deadline passes.
func (w *Worker) await(ready <-chan struct{}) error {
	if w.until.IsZero() {
		<-ready
		return nil
	}
	wait := time.Until(w.until)
	if wait <= 0 {
		return errNoWork
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ready:
		return nil
	case <-timer.C:
		return errNoWork
	}
}

// process fetches one source and hands the text to its workspace. A fetch
// that yields no text leaves the source incomplete; waiters are bounded by
// their own deadline.
func (w *Worker) process(src *Source) {
	ctx := context.Background()
	if !w.until.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, w.until)
		defer cancel()
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, src.Domain); err != nil {
			w.logger.Debug("rate limit wait aborted", zap.String("url", src.URL), zap.Error(err))
			return
		}
	}

	start := time.Now()
	text, ok := w.fetcher.FetchText(ctx, src.URL, src.Headers, src.Timeout)
	telemetry.ObserveFetch(ok, time.Since(start))
	if !ok {
		w.logger.Debug("no usable text", zap.String("url", src.URL))
		return
	}

	ws := src.workspace
	ws.Compare(src, ws.model.Build(text))
}
