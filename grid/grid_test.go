package grid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.sr.ht/~bigdata/bdview/block"
	"git.sr.ht/~bigdata/bdview/cache"
)

type fakePayload struct {
	mu    sync.Mutex
	valid bool
}

func (p *fakePayload) IsValid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valid
}
func (p *fakePayload) Bytes() []byte { return []byte{1, 2, 3, 4} }

type fakeLoader struct {
	delay time.Duration

	mu    sync.Mutex
	loads []block.Key
}

func (l *fakeLoader) BytesPerElement() int { return 1 }

func (l *fakeLoader) LoadArray(ctx context.Context, timepoint, setup, level int, dims [3]int, origin [3]int64) (block.Payload, error) {
	l.mu.Lock()
	l.loads = append(l.loads, block.NewKey(timepoint, setup, level, 0, 4, 1, 1))
	l.mu.Unlock()
	select {
	case <-time.After(l.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &fakePayload{valid: true}, nil
}

func (l *fakeLoader) EmptyArray(dims [3]int) block.Payload { return &fakePayload{} }

func (l *fakeLoader) loadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loads)
}

func testGrid(t *testing.T, loader cache.BlockLoader, prefetch bool) *Grid {
	t.Helper()
	c, err := cache.New(cache.Config{
		Loader:            loader,
		MaxLevel:          func(setup int) int { return 4 },
		NumPriorityLevels: 4,
		NumFetchers:       2,
		LRUCapacity:       64,
		PrefetchCells:     prefetch,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	layout := NewLayout([3]int{8, 8, 8}, [3]int64{}, [3]int64{32, 8, 8})
	shape := block.Shape{MaxLevels: 4, NumSetups: 1, NumTimepoints: 1}
	return New(c, layout, shape, 0, 0, 0, prefetch)
}

func TestGridGetReturnsPlaceholderWithoutBlocking(t *testing.T) {
	g := testGrid(t, &fakeLoader{delay: time.Hour}, false)
	b, ok := g.Get([3]int{0, 0, 0}, cache.Volatile, 0)
	require.True(t, ok)
	require.False(t, b.Payload.IsValid())
}

func TestGridGetOutOfBoundsFails(t *testing.T) {
	g := testGrid(t, &fakeLoader{delay: time.Millisecond}, false)
	_, ok := g.Get([3]int{99, 0, 0}, cache.Volatile, 0)
	require.False(t, ok)
}

func TestGridGetBlockingWaitsForValidPayload(t *testing.T) {
	g := testGrid(t, &fakeLoader{delay: 2 * time.Millisecond}, false)
	b, ok := g.Get([3]int{0, 0, 0}, cache.Blocking, 0)
	require.True(t, ok)
	require.True(t, b.Payload.IsValid())
}

func TestGridSharesCacheEntryAcrossCalls(t *testing.T) {
	g := testGrid(t, &fakeLoader{delay: time.Millisecond}, false)
	b1, _ := g.Get([3]int{1, 0, 0}, cache.Volatile, 0)
	b2, _ := g.Get([3]int{1, 0, 0}, cache.Volatile, 0)
	require.Equal(t, b1.Origin, b2.Origin)
}

func TestGridPrefetchEnqueuesNeighbors(t *testing.T) {
	loader := &fakeLoader{delay: time.Millisecond}
	g := testGrid(t, loader, true)

	// Grid is 4x1x1 blocks; requesting index 1 should hint-enqueue
	// neighbors at index 0 and 2 (index -1 along y/z is out of bounds).
	_, ok := g.Get([3]int{1, 0, 0}, cache.Volatile, 0)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return loader.loadCount() >= 3
	}, time.Second, time.Millisecond, "expected the requested block and both x-neighbors to load")
}
