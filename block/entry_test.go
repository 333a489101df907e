package block

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePayload struct{ valid bool }

func (f *fakePayload) IsValid() bool { return f.valid }
func (f *fakePayload) Bytes() []byte { return nil }

func placeholder() Block {
	return Block{Payload: &fakePayload{}}
}

func TestEntryMarkEnqueuedIdempotent(t *testing.T) {
	e := NewEntry(Key{}, placeholder())
	require.True(t, e.MarkEnqueued(1), "first enqueue in generation 1 succeeds")
	require.False(t, e.MarkEnqueued(1), "second enqueue in the same generation is a no-op")
	require.True(t, e.MarkEnqueued(2), "a later generation enqueues again")
}

func TestEntryMarkEnqueuedAfterLoadNeverReenqueues(t *testing.T) {
	e := NewEntry(Key{}, placeholder())
	err := e.LoadIfInvalid(context.Background(), func(context.Context) (Payload, error) {
		return &fakePayload{valid: true}, nil
	})
	require.NoError(t, err)
	require.False(t, e.MarkEnqueued(1000), "a loaded entry is never re-enqueued")
}

func TestEntryLoadIfInvalidTransitionsOnce(t *testing.T) {
	e := NewEntry(Key{}, placeholder())
	var calls int
	load := func(context.Context) (Payload, error) {
		calls++
		return &fakePayload{valid: true}, nil
	}
	require.NoError(t, e.LoadIfInvalid(context.Background(), load))
	require.NoError(t, e.LoadIfInvalid(context.Background(), load))
	require.Equal(t, 1, calls, "a valid entry's loader is never invoked again")
	require.True(t, e.Valid())
}

func TestEntryWaitValidWakesOnLoad(t *testing.T) {
	e := NewEntry(Key{}, placeholder())
	var wg sync.WaitGroup
	wg.Add(1)
	var woke bool
	go func() {
		defer wg.Done()
		woke = e.WaitValid(time.Second)
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.LoadIfInvalid(context.Background(), func(context.Context) (Payload, error) {
		return &fakePayload{valid: true}, nil
	}))
	wg.Wait()
	require.True(t, woke)
}

func TestEntryWaitValidTimesOut(t *testing.T) {
	e := NewEntry(Key{}, placeholder())
	start := time.Now()
	ok := e.WaitValid(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
