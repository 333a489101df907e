package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.sr.ht/~bigdata/bdview/block"
)

func TestFetcherPoolDrainsQueueInPriorityOrder(t *testing.T) {
	q := block.NewQueue(3)
	var mu sync.Mutex
	var seen []block.Key
	done := make(chan struct{})
	process := func(ctx context.Context, key block.Key) {
		mu.Lock()
		seen = append(seen, key)
		if len(seen) == 3 {
			close(done)
		}
		mu.Unlock()
	}
	high := block.Key{Setup: 1}
	mid := block.Key{Setup: 2}
	low := block.Key{Setup: 3}
	// Queue everything before the worker starts, so it cannot take the
	// first Put before the higher-priority ones arrive.
	q.Put(low, 2)
	q.Put(high, 0)
	q.Put(mid, 1)

	pool := NewFetcherPool(1, q, process, nil)
	defer pool.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetcher pool never drained the queue")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []block.Key{high, mid, low}, seen)
}

func TestFetcherPoolPauseBlocksDispatch(t *testing.T) {
	q := block.NewQueue(1)
	processed := make(chan time.Time, 1)
	pool := NewFetcherPool(1, q, func(ctx context.Context, key block.Key) {
		processed <- time.Now()
	}, nil)
	defer pool.Close()

	pauseUntil := time.Now().Add(80 * time.Millisecond)
	pool.PauseUntil(pauseUntil)
	q.Put(block.Key{Index: 1}, 0)

	select {
	case got := <-processed:
		require.True(t, !got.Before(pauseUntil), "work must not dispatch before the pause deadline")
	case <-time.After(time.Second):
		t.Fatal("paused fetcher never resumed")
	}
}

func TestFetcherPoolWakeUpResumesImmediately(t *testing.T) {
	q := block.NewQueue(1)
	processed := make(chan struct{}, 1)
	pool := NewFetcherPool(1, q, func(ctx context.Context, key block.Key) {
		processed <- struct{}{}
	}, nil)
	defer pool.Close()

	pool.PauseUntil(time.Now().Add(time.Hour))
	q.Put(block.Key{Index: 1}, 0)
	pool.WakeUp()

	select {
	case <-processed:
	case <-time.After(time.Second):
		t.Fatal("WakeUp did not resume a paused fetcher")
	}
}
