package copyvios

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/theassyrian/earwigbot/internal/clock/system"
	"github.com/theassyrian/earwigbot/internal/telemetry"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultURLTimeout = 5 * time.Second
	DefaultNumWorkers = 8
)

// Config describes one similarity check.
type Config struct {
	// Model builds and intersects fingerprints. Required.
	Model FingerprintModel
	// Article is the document-side fingerprint. Required.
	Article Fingerprint
	// MinConfidence triggers early cancellation of the remaining sources
	// once any source meets it.
	MinConfidence float64
	// Until is the absolute wall-clock deadline shared by all waiters of
	// this check. Zero means no deadline.
	Until time.Time
	// Headers are sent with every fetch of this check.
	Headers http.Header
	// URLTimeout bounds each individual fetch.
	URLTimeout time.Duration

	// Pool attaches the check to a shared worker pool. When nil, the
	// workspace spawns NumWorkers private workers that live for the
	// duration of the check.
	Pool       *Pool
	NumWorkers int
	// Fetcher retrieves and extracts source text. Required unless Pool is
	// set (the pool's workers carry their own fetcher).
	Fetcher SourceFetcher
	// Limiter, if set, paces fetches per domain on private workers.
	Limiter Limiter
	// Classifier resolves registrable domains. When nil, the last two
	// dot-separated labels of the host are used.
	Classifier DomainClassifier

	Clock  Clock
	Logger *zap.Logger
}

// Workspace coordinates one check: it owns the source list, partitions URLs
// into domain queues, tracks the best result, and cancels the rest once the
// confidence threshold is met.
type Workspace struct {
	model         FingerprintModel
	article       Fingerprint
	minConfidence float64
	until         time.Time
	headers       http.Header
	urlTimeout    time.Duration
	classifier    DomainClassifier
	clock         Clock
	logger        *zap.Logger

	queues  *queueRegistry
	pool    *Pool
	private int

	mu      sync.Mutex
	sources []*Source
	handled map[string]struct{}

	compareMu sync.Mutex
	best      *Source

	finished atomic.Bool
	closed   atomic.Bool

	emptyChain Fingerprint
	emptyDelta Fingerprint
}

// New builds a Workspace and, unless a shared Pool is given, starts its
// private workers. Callers attached to a shared pool must not toggle the
// pool's lifecycle while the check runs.
func New(cfg Config) (*Workspace, error) {
	if cfg.Model == nil {
		return nil, errors.New("copyvios: Config.Model is required")
	}
	if cfg.Article == nil {
		return nil, errors.New("copyvios: Config.Article is required")
	}
	if cfg.Pool == nil && cfg.Fetcher == nil {
		return nil, errors.New("copyvios: Config.Fetcher is required without a shared pool")
	}
	if cfg.URLTimeout <= 0 {
		cfg.URLTimeout = DefaultURLTimeout
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ws := &Workspace{
		model:         cfg.Model,
		article:       cfg.Article,
		minConfidence: cfg.MinConfidence,
		until:         cfg.Until,
		headers:       cfg.Headers,
		urlTimeout:    cfg.URLTimeout,
		classifier:    cfg.Classifier,
		clock:         cfg.Clock,
		logger:        cfg.Logger.Named("copyvios"),
		handled:       make(map[string]struct{}),
	}
	ws.emptyChain = cfg.Model.Build("")
	ws.emptyDelta = cfg.Model.Intersect(ws.emptyChain, ws.emptyChain)
	ws.best = newSource(ws, "", "")

	if cfg.Pool != nil {
		ws.pool = cfg.Pool
		ws.queues = cfg.Pool.queues
		return ws, nil
	}

	ws.queues = newQueueRegistry()
	ws.private = cfg.NumWorkers
	for i := 0; i < cfg.NumWorkers; i++ {
		w := newWorker(workerName("local", i), ws.queues, cfg.Fetcher, cfg.Limiter, ws.logger, cfg.Until)
		w.start()
	}
	return ws, nil
}

// Enqueue partitions urls into the domain queues, skipping duplicates and
// anything the exclusion predicate rejects. Enqueuing stops as soon as the
// check is marked finished.
func (ws *Workspace) Enqueue(urls []string, exclude func(string) bool) {
	for _, rawURL := range urls {
		if ws.finished.Load() {
			break
		}
		ws.mu.Lock()
		if _, seen := ws.handled[rawURL]; seen {
			ws.mu.Unlock()
			continue
		}
		ws.handled[rawURL] = struct{}{}
		ws.mu.Unlock()

		if exclude != nil && exclude(rawURL) {
			telemetry.SourceSkipped()
			continue
		}

		src := newSource(ws, rawURL, ws.domainKey(rawURL))
		ws.mu.Lock()
		ws.sources = append(ws.sources, src)
		ws.mu.Unlock()

		appended := ws.queues.add(src)
		action := "new"
		if appended {
			action = "append"
		}
		ws.logger.Debug("enqueue",
			zap.String("action", action),
			zap.String("domain", src.Domain),
			zap.String("url", rawURL),
		)
	}
}

// Wait blocks until every enqueued source is completed or cancelled, or the
// check's deadline passes, whichever comes first. Sources still mid-fetch at
// the deadline are not abandoned: their workers finish the fetch and the
// comparison still runs, so Best may improve after Wait returns. A zero
// deadline performs no waiting.
func (ws *Workspace) Wait() {
	ws.mu.Lock()
	sources := make([]*Source, len(ws.sources))
	copy(sources, ws.sources)
	ws.mu.Unlock()

	ws.logger.Debug("waiting on sources", zap.Int("count", len(sources)))
	for _, src := range sources {
		src.join(ws.until, ws.clock)
	}
}

// Compare scores one source against the article and updates the best known
// match. When the score meets the minimum confidence, the remaining sources
// of this check are cancelled.
func (ws *Workspace) Compare(src *Source, chain Fingerprint) {
	delta := ws.model.Intersect(ws.article, chain)
	conf := confidence(float64(ws.article.Size()), float64(delta.Size()))
	src.complete(conf, chain, delta)
	telemetry.SourceCompleted()
	ws.logger.Debug("compare", zap.String("url", src.URL), zap.Float64("confidence", conf))

	ws.compareMu.Lock()
	defer ws.compareMu.Unlock()
	if conf > ws.best.Confidence {
		ws.best = src
		if conf >= ws.minConfidence {
			ws.finishEarly()
		}
	}
}

// Best returns the highest-confidence source observed so far. Before any
// comparison completes it is a placeholder with confidence 0.
func (ws *Workspace) Best() *Source {
	ws.compareMu.Lock()
	defer ws.compareMu.Unlock()
	return ws.best
}

// Sources returns the full list of sources enqueued for this check.
func (ws *Workspace) Sources() []*Source {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]*Source, len(ws.sources))
	copy(out, ws.sources)
	return out
}

// Finished reports whether the check was marked finished early.
func (ws *Workspace) Finished() bool {
	return ws.finished.Load()
}

// finishEarly cancels every still-active source of this check under the
// registry lock and marks the check finished. Idempotent.
func (ws *Workspace) finishEarly() {
	if ws.finished.Load() {
		return
	}
	ws.logger.Debug("confidence threshold met; cancelling remaining sources")

	ws.mu.Lock()
	sources := make([]*Source, len(ws.sources))
	copy(sources, ws.sources)
	ws.mu.Unlock()

	ws.queues.mu.Lock()
	for _, src := range sources {
		if src.Active() {
			src.cancel()
			telemetry.SourceCancelled()
		}
	}
	ws.finished.Store(true)
	ws.queues.mu.Unlock()
}

// Close stops the workspace's private workers. It is a no-op for workspaces
// attached to a shared pool, and safe to call more than once.
func (ws *Workspace) Close() {
	if ws.pool != nil || !ws.closed.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < ws.private; i++ {
		ws.queues.pushStop()
	}
}

func (ws *Workspace) domainKey(rawURL string) string {
	if ws.classifier != nil {
		if domain := ws.classifier.RegistrableDomain(rawURL); domain != "" {
			return domain
		}
	}
	return naiveDomain(rawURL)
}

// naiveDomain keeps the last two dot-separated labels of the URL's host.
// It is the fallback when no registrable-domain classifier is configured.
func naiveDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(rawURL)
	}
	labels := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}
