package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"git.sr.ht/~bigdata/bdview/block"
)

// blockingRetryBackoff bounds how fast the BLOCKING strategy retries a
// failed load, so a permanently failing loader does not spin a hot loop.
const blockingRetryBackoff = 2 * time.Millisecond

// BlockCache is the keyed block residency table: C4. It owns the fetch
// priority queue and the FetcherPool draining it, and implements the
// three loading strategies (Volatile, Blocking, Budgeted) described in
// the documentation of Strategy.
type BlockCache struct {
	cfg    Config
	logger logrus.FieldLogger

	mu         sync.Mutex
	residency  map[block.Key]*block.Entry
	pin        map[block.Key]*block.Entry
	lru        *lru
	generation uint64 // atomic

	jobsMu  sync.Mutex
	budgets map[block.JobID]*block.Budget
	stats   map[block.JobID]*block.Stats

	queue     *block.Queue
	fetchers  *FetcherPool
	closeOnce sync.Once
}

// New constructs a BlockCache and starts its fetcher pool. An invalid
// Config is a fatal configuration error returned here, never discovered
// mid-render.
func New(cfg Config) (*BlockCache, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &BlockCache{
		cfg:        cfg,
		logger:     logger,
		residency:  make(map[block.Key]*block.Entry),
		pin:        make(map[block.Key]*block.Entry),
		lru:        newLRU(cfg.LRUCapacity),
		generation: 1,
		budgets:    make(map[block.JobID]*block.Budget),
		stats:      make(map[block.JobID]*block.Stats),
		queue:      block.NewQueue(cfg.NumPriorityLevels),
	}
	c.fetchers = NewFetcherPool(cfg.NumFetchers, c.queue, c.fetchWorker, logger)
	return c, nil
}

// GetIfPresent returns the entry's current block if one exists for key,
// acting per strategy first. It never creates a placeholder.
func (c *BlockCache) GetIfPresent(key block.Key, strategy Strategy, job block.JobID) (block.Block, bool) {
	c.mu.Lock()
	entry, ok := c.residency[key]
	c.mu.Unlock()
	if !ok {
		return block.Block{}, false
	}
	c.applyStrategy(entry, strategy, job)
	return entry.Block(), true
}

// GetOrCreate returns key's entry, installing a fresh placeholder (from
// the configured loader's EmptyArray) if none exists, then acts per
// strategy.
func (c *BlockCache) GetOrCreate(key block.Key, dims [3]int, origin [3]int64, strategy Strategy, job block.JobID) block.Block {
	c.mu.Lock()
	entry, ok := c.residency[key]
	if !ok {
		placeholder := block.Block{Dims: dims, Origin: origin, Payload: c.cfg.Loader.EmptyArray(dims)}
		entry = block.NewEntry(key, placeholder)
		c.residency[key] = entry
	}
	c.mu.Unlock()
	c.applyStrategy(entry, strategy, job)
	return entry.Block()
}

// Touch installs a placeholder for key if one does not already exist,
// without applying any loading strategy. It is used by grid.Grid to
// materialize an entry purely so it has something to prefetch.
func (c *BlockCache) Touch(key block.Key, dims [3]int, origin [3]int64) *block.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.residency[key]
	if !ok {
		placeholder := block.Block{Dims: dims, Origin: origin, Payload: c.cfg.Loader.EmptyArray(dims)}
		entry = block.NewEntry(key, placeholder)
		c.residency[key] = entry
	}
	return entry
}

// Lookup returns the entry for key without installing a placeholder or
// applying a strategy. Used by the fetcher pool and by prefetch hints.
func (c *BlockCache) Lookup(key block.Key) (*block.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.residency[key]
	return e, ok
}

// EnqueuePrefetch enqueues entry at the lowest priority if it is not
// already valid. It is the "best effort hint" referenced by
// Config.PrefetchCells and never blocks.
func (c *BlockCache) EnqueuePrefetch(entry *block.Entry) {
	if entry.Valid() {
		return
	}
	c.enqueueAt(entry, c.cfg.NumPriorityLevels-1)
}

func (c *BlockCache) applyStrategy(entry *block.Entry, strategy Strategy, job block.JobID) {
	switch strategy {
	case Volatile:
		if !entry.Valid() {
			c.enqueue(entry)
		}
	case Blocking:
		for !entry.Valid() {
			if err := c.loadEntry(context.Background(), entry, job); err != nil {
				time.Sleep(blockingRetryBackoff)
			}
		}
	case Budgeted:
		c.applyBudgeted(entry, job)
	}
}

func (c *BlockCache) applyBudgeted(entry *block.Entry, job block.JobID) {
	priority := c.priorityFor(entry.Key)
	budget := c.budgetFor(job)
	if budget.TimeLeft(priority) <= 0 {
		c.enqueue(entry)
		return
	}
	c.enqueue(entry)
	timeout := time.Duration(budget.TimeLeft(priority))
	start := time.Now()
	entry.WaitValid(timeout)
	budget.Use(time.Since(start), priority)
}

// loadEntry performs a synchronous load attempt for entry, attributing
// time and failures to job's Stats, and logging LoaderFailure events.
// Used directly by the Blocking strategy and indirectly by fetcher
// workers (with the background job id).
func (c *BlockCache) loadEntry(ctx context.Context, entry *block.Entry, job block.JobID) error {
	stats := c.statsFor(job)
	stats.Start()
	defer stats.Stop()

	wasValid := entry.Valid()
	blk := entry.Block()
	err := entry.LoadIfInvalid(ctx, func(ctx context.Context) (block.Payload, error) {
		return c.cfg.Loader.LoadArray(ctx, entry.Key.Timepoint, entry.Key.Setup, entry.Key.Level, blk.Dims, blk.Origin)
	})
	if err != nil {
		stats.RecordFailure()
		c.logger.WithFields(logrus.Fields{
			"timepoint": entry.Key.Timepoint,
			"setup":     entry.Key.Setup,
			"level":     entry.Key.Level,
			"index":     entry.Key.Index,
			"error":     err,
		}).Warn("LoaderFailure: block remains a placeholder, will retry")
		return err
	}
	if !wasValid && entry.Valid() {
		loaded := entry.Block()
		if loaded.Payload != nil {
			stats.AddBytes(int64(len(loaded.Payload.Bytes())))
		}
		c.mu.Lock()
		evicted := c.lru.touch(entry.Key)
		c.mu.Unlock()
		c.reclaim(evicted)
	}
	return nil
}

// fetchWorker is the FetcherPool's process callback: look the key up and
// attempt to load it, attributing time to a shared background job.
func (c *BlockCache) fetchWorker(ctx context.Context, key block.Key) {
	entry, ok := c.Lookup(key)
	if !ok {
		// Reclaimed before the fetcher got to it; nothing to do.
		return
	}
	_ = c.loadEntry(ctx, entry, backgroundJob)
}

// backgroundJob attributes fetcher-pool I/O time, which is not performed
// on behalf of any single rendering job, to a dedicated id.
const backgroundJob block.JobID = -1

// reclaim purges keys evicted from the LRU from the residency table,
// unless they are still pinned by the current frame's outstanding fetch
// list, in which case reclamation is deferred (the entry stays resident
// until it is unpinned by the next PrepareNextFrame).
func (c *BlockCache) reclaim(evicted []block.Key) {
	if len(evicted) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range evicted {
		if _, pinned := c.pin[k]; pinned {
			continue
		}
		delete(c.residency, k)
	}
}

func (c *BlockCache) enqueue(entry *block.Entry) {
	c.enqueueAt(entry, c.priorityFor(entry.Key))
}

func (c *BlockCache) enqueueAt(entry *block.Entry, priority int) {
	generation := atomic.LoadUint64(&c.generation)
	if !entry.MarkEnqueued(generation) {
		return
	}
	c.mu.Lock()
	c.pin[entry.Key] = entry
	c.mu.Unlock()
	c.queue.Put(entry.Key, priority)
}

func (c *BlockCache) priorityFor(key block.Key) int {
	return c.cfg.MaxLevel(key.Setup) - key.Level
}

// PrepareNextFrame demotes all live queue contents to the prefetch
// shadow, drops the current-frame pin list, and advances the generation
// counter so stale enqueues from the prior frame are harmlessly retried.
func (c *BlockCache) PrepareNextFrame() {
	c.queue.Clear()
	c.mu.Lock()
	// Loaded entries the LRU evicted while they were still pinned (see
	// reclaim) are purged now that their pin is dropped.
	for k, e := range c.pin {
		_, inLRU := c.lru.index[k]
		if !inLRU && e.EnqueueGeneration() == block.NeverEnqueue && c.residency[k] == e {
			delete(c.residency, k)
		}
	}
	c.pin = make(map[block.Key]*block.Entry)
	c.mu.Unlock()
	atomic.AddUint64(&c.generation, 1)
}

// CurrentGeneration reports the frame generation counter.
func (c *BlockCache) CurrentGeneration() uint64 {
	return atomic.LoadUint64(&c.generation)
}

// InitIOBudget installs or resets job's I/O time budget.
func (c *BlockCache) InitIOBudget(job block.JobID, partial []int64) {
	c.budgetFor(job).Reset(partial)
}

// Stats returns job's accumulated I/O statistics snapshot.
func (c *BlockCache) Stats(job block.JobID) block.Snapshot {
	return c.statsFor(job).Snapshot()
}

func (c *BlockCache) budgetFor(job block.JobID) *block.Budget {
	c.jobsMu.Lock()
	defer c.jobsMu.Unlock()
	b, ok := c.budgets[job]
	if !ok {
		b = block.NewBudget(c.cfg.NumPriorityLevels)
		c.budgets[job] = b
	}
	return b
}

func (c *BlockCache) statsFor(job block.JobID) *block.Stats {
	c.jobsMu.Lock()
	defer c.jobsMu.Unlock()
	s, ok := c.stats[job]
	if !ok {
		s = block.NewStats()
		c.stats[job] = s
	}
	return s
}

// PauseFetchersUntil delegates to the FetcherPool.
func (c *BlockCache) PauseFetchersUntil(t time.Time) {
	c.fetchers.PauseUntil(t)
}

// WakeFetchers delegates to the FetcherPool.
func (c *BlockCache) WakeFetchers() {
	c.fetchers.WakeUp()
}

// Close stops the fetcher pool. Idempotent.
func (c *BlockCache) Close() {
	c.closeOnce.Do(c.fetchers.Close)
}
