package worker

import (
	"sync"

	"github.com/baharkarakas/points-ledger/internal/metrics"
)

type task func()

// Pool runs submitted tasks on a fixed set of goroutines. The ledger
// uses it to push archive and event writes off the request path.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan task
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
			}
		}()
	}
	return p
}

func (p *Pool) Submit(f task) {
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
}

// Stop waits for queued tasks to drain. Submit after Stop panics.
func (p *Pool) Stop() { close(p.jobs); p.wg.Wait() }
