package block

import (
	"context"
	"sync"
)

// Queue is a bounded set of FIFO sub-queues indexed by priority (0 =
// highest), draining strictly in priority order. Clear atomically moves
// all live contents into a "prefetch" shadow FIFO: future Take calls
// drain the live levels first and only fall back to the shadow once they
// are empty. Clear never discards work; it only demotes it, so a frame
// that re-prioritizes unserved requests never loses the fact that they
// were already worth fetching.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	levels   [][]Key
	prefetch []Key
	closed   bool
}

// NewQueue builds a Queue with the given number of priority levels.
func NewQueue(numPriorities int) *Queue {
	if numPriorities < 1 {
		numPriorities = 1
	}
	q := &Queue{levels: make([][]Key, numPriorities)}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put appends key to the sub-queue for priority p (clamped into range).
func (q *Queue) Put(key Key, priority int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if priority < 0 {
		priority = 0
	} else if priority >= len(q.levels) {
		priority = len(q.levels) - 1
	}
	q.levels[priority] = append(q.levels[priority], key)
	q.notEmpty.Signal()
}

// Take blocks until a key is available, the queue is closed, or ctx is
// done. ok is false in the latter two cases. Live levels drain strictly
// in priority order before the prefetch shadow is consulted.
func (q *Queue) Take(ctx context.Context) (key Key, ok bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if k, found := q.popLocked(); found {
			return k, true
		}
		if q.closed || ctx.Err() != nil {
			return Key{}, false
		}
		q.notEmpty.Wait()
	}
}

// TryTake returns immediately with ok=false if nothing is available.
func (q *Queue) TryTake() (key Key, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue) popLocked() (Key, bool) {
	for p := range q.levels {
		if len(q.levels[p]) > 0 {
			k := q.levels[p][0]
			q.levels[p] = q.levels[p][1:]
			return k, true
		}
	}
	if len(q.prefetch) > 0 {
		k := q.prefetch[0]
		q.prefetch = q.prefetch[1:]
		return k, true
	}
	return Key{}, false
}

// Clear atomically demotes all live entries to the prefetch shadow,
// highest priority first, preserving relative order. It never discards
// work.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for p := range q.levels {
		if len(q.levels[p]) == 0 {
			continue
		}
		q.prefetch = append(q.prefetch, q.levels[p]...)
		q.levels[p] = nil
	}
}

// Len reports the total number of live (non-prefetch) entries across all
// priority levels.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, l := range q.levels {
		n += len(l)
	}
	return n
}

// PrefetchLen reports the number of entries sitting in the prefetch
// shadow.
func (q *Queue) PrefetchLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.prefetch)
}

// Close unblocks any goroutine waiting in Take. Put becomes a no-op
// after Close.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}
