package block

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBudgetResetMonotone(t *testing.T) {
	b := NewBudget(4)
	b.Reset([]int64{10, 20, 5})
	// partial extends with its last value (5) to fill remaining levels,
	// then gets clamped top-down to stay non-increasing.
	require.Equal(t, int64(10), b.TimeLeft(0))
	for i := 1; i < 4; i++ {
		require.LessOrEqualf(t, b.TimeLeft(i), b.TimeLeft(i-1), "level %d", i)
	}
}

func TestBudgetUseCascades(t *testing.T) {
	b := NewBudget(3)
	b.Reset([]int64{30, 30, 30})
	b.Use(40*time.Nanosecond, 1)
	require.Equal(t, int64(-10), b.TimeLeft(0))
	require.Equal(t, int64(-10), b.TimeLeft(1))
	// level 2 was untouched by Use but must clamp down to stay <= level 1.
	require.Equal(t, int64(-10), b.TimeLeft(2))
}

func TestBudgetInvariantUnderRandomUse(t *testing.T) {
	b := NewBudget(5)
	b.Reset([]int64{100})
	uses := []struct {
		t     time.Duration
		level int
	}{
		{5 * time.Nanosecond, 0},
		{50 * time.Nanosecond, 3},
		{1 * time.Nanosecond, 4},
		{200 * time.Nanosecond, 2},
	}
	for _, u := range uses {
		b.Use(u.t, u.level)
		for i := 1; i < b.Levels(); i++ {
			require.LessOrEqualf(t, b.TimeLeft(i), b.TimeLeft(i-1), "level %d after Use(%v,%d)", i, u.t, u.level)
		}
	}
}
