package grid

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// workers runs fetches and mutation requests. Tasks beyond the pool's
// capacity run on their own goroutine so submitting never blocks the caller.
type workers struct {
	pool *ants.Pool
	own  bool
	log  *zap.Logger
	wg   sync.WaitGroup
}

func newWorkers(pool *ants.Pool, size int, log *zap.Logger) (*workers, error) {
	w := &workers{pool: pool, log: log}
	if pool != nil {
		return w, nil
	}
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			log.Error("grid worker panic", zap.Any("panic", v))
		}))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	w.pool, w.own = p, true
	return w, nil
}

func (w *workers) submit(task func()) {
	w.wg.Add(1)
	run := func() {
		defer w.wg.Done()
		task()
	}
	if err := w.pool.Submit(run); err != nil {
		w.log.Debug("worker pool saturated, running task inline", zap.Error(err))
		go run()
	}
}

// wait blocks until every submitted task returned.
func (w *workers) wait() { w.wg.Wait() }

func (w *workers) release() {
	if w.own {
		w.pool.Release()
	}
}
