package copyvios

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// zeroTime means "no deadline" for pool workers.
var zeroTime time.Time

// Pool is an explicit handle on a shared set of workers serving any number
// of concurrent checks. Sharing one pool keeps the total fetch concurrency
// bounded when many checks run at once, for example behind a web frontend.
type Pool struct {
	queues   *queueRegistry
	workers  int
	shutdown sync.Once
}

// PoolConfig describes a shared worker pool.
type PoolConfig struct {
	// Workers is the pool size.
	Workers int
	// Fetcher retrieves and extracts source text. Required.
	Fetcher SourceFetcher
	// Limiter, if set, paces fetches per domain.
	Limiter Limiter
	Logger  *zap.Logger
}

// NewPool starts the shared workers. The pool lives until Shutdown; its
// workers have no deadline of their own and rely on stop tokens to exit.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("copyvios: PoolConfig.Fetcher is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultNumWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Pool{
		queues:  newQueueRegistry(),
		workers: cfg.Workers,
	}
	for i := 0; i < cfg.Workers; i++ {
		w := newWorker(workerName("global", i), p.queues, cfg.Fetcher, cfg.Limiter, cfg.Logger.Named("copyvios"), zeroTime)
		w.start()
	}
	return p, nil
}

// Shutdown sends each worker a stop token and is safe to call more than
// once. It must not race with in-progress checks; callers serialize pool
// lifecycle against all checks.
func (p *Pool) Shutdown() {
	p.shutdown.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.queues.pushStop()
		}
	})
}

func workerName(prefix string, i int) string {
	return fmt.Sprintf("cvworker-%s-%d", prefix, i)
}
