package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"git.sr.ht/~bigdata/bdview/block"
)

// FetcherPool is a fixed-size pool of background workers draining a
// block.Queue. Workers can be paused until an absolute wall-clock
// deadline; interrupt-based pause from the source is replaced here with
// sync.Cond waits keyed on that deadline (see design notes), so pause and
// wake are ordinary, race-free Go synchronization rather than goroutine
// interruption.
type FetcherPool struct {
	queue   *block.Queue
	process func(ctx context.Context, key block.Key)
	logger  logrus.FieldLogger

	mu         sync.Mutex
	cond       *sync.Cond
	pauseUntil time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	n      int
}

// NewFetcherPool starts n worker goroutines immediately. process is
// invoked once per dequeued key; it is expected to look up the
// corresponding entry and call its LoadIfInvalid.
func NewFetcherPool(n int, queue *block.Queue, process func(ctx context.Context, key block.Key), logger logrus.FieldLogger) *FetcherPool {
	if n < 1 {
		n = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &FetcherPool{
		queue:   queue,
		process: process,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		n:       n,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

func (p *FetcherPool) run(id int) {
	defer p.wg.Done()
	for {
		key, ok := p.queue.Take(p.ctx)
		if !ok {
			p.logger.WithField("worker", id).Debug("fetcher shutting down")
			return
		}
		if !p.waitUnlessPaused() {
			return
		}
		p.process(p.ctx, key)
	}
}

// waitUnlessPaused blocks while the pool is paused, re-checking the
// deadline after every wakeup, and returns false if the pool was closed
// while waiting.
func (p *FetcherPool) waitUnlessPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.ctx.Err() != nil {
			return false
		}
		remaining := time.Until(p.pauseUntil)
		if remaining <= 0 {
			return true
		}
		timer := time.AfterFunc(remaining, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		p.cond.Wait()
		timer.Stop()
	}
}

// PauseUntil rewrites the pause deadline and wakes any worker currently
// re-evaluating it. Workers that are mid-fetch finish that fetch before
// observing the new deadline.
func (p *FetcherPool) PauseUntil(t time.Time) {
	p.mu.Lock()
	p.pauseUntil = t
	p.mu.Unlock()
	p.cond.Broadcast()
	p.logger.WithField("until", t).Debug("fetchers paused")
}

// WakeUp clears any pause deadline immediately.
func (p *FetcherPool) WakeUp() {
	p.mu.Lock()
	p.pauseUntil = time.Time{}
	p.mu.Unlock()
	p.cond.Broadcast()
}

// ActiveWorkers reports the configured worker count.
func (p *FetcherPool) ActiveWorkers() int {
	return p.n
}

// Close stops all workers and unblocks the queue. Idempotent.
func (p *FetcherPool) Close() {
	p.cancel()
	p.queue.Close()
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}
