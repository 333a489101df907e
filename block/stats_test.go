package block

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatsNestedStartStop(t *testing.T) {
	s := NewStats()
	s.Start()
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	mid := s.Snapshot().IOTime
	time.Sleep(5 * time.Millisecond)
	require.Greater(t, s.Snapshot().IOTime, mid, "group watch keeps running while one thread is still active")
	s.Stop()
	snap := s.Snapshot()
	require.Greater(t, snap.IOTime, time.Duration(0))
}

func TestStatsBytesAndFailures(t *testing.T) {
	s := NewStats()
	s.AddBytes(10)
	s.AddBytes(5)
	s.RecordFailure()
	snap := s.Snapshot()
	require.Equal(t, int64(15), snap.BytesLoaded)
	require.Equal(t, int64(1), snap.FailedLoads)
}
