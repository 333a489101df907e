package block

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueuePriorityOrder(t *testing.T) {
	q := NewQueue(3)
	low := Key{Setup: 1}
	high := Key{Setup: 2}
	mid := Key{Setup: 3}
	q.Put(low, 2)
	q.Put(high, 0)
	q.Put(mid, 1)

	ctx := context.Background()
	for _, want := range []Key{high, mid, low} {
		got, ok := q.Take(ctx)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestQueueClearDemotesToPrefetch(t *testing.T) {
	q := NewQueue(2)
	a := Key{Index: 1}
	q.Put(a, 0)
	q.Clear()
	require.Equal(t, 0, q.Len())
	require.Equal(t, 1, q.PrefetchLen())

	b := Key{Index: 2}
	q.Put(b, 0)
	ctx := context.Background()
	first, _ := q.Take(ctx)
	require.Equal(t, b, first, "live queue drains before the prefetch shadow")
	second, _ := q.Take(ctx)
	require.Equal(t, a, second, "prefetch shadow is served once live queues are empty")
}

func TestQueueTakeBlocksUntilPut(t *testing.T) {
	q := NewQueue(1)
	done := make(chan Key, 1)
	go func() {
		k, ok := q.Take(context.Background())
		if ok {
			done <- k
		}
	}()
	time.Sleep(10 * time.Millisecond)
	want := Key{Index: 42}
	q.Put(want, 0)
	select {
	case got := <-done:
		require.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Put")
	}
}

func TestQueueTakeRespectsContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := q.Take(ctx)
	require.False(t, ok)
}
