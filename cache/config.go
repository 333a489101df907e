package cache

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Config holds the construction-time options recognized by New. Loader
// and MaxLevel are required; a missing required field is a configuration
// error surfaced at construction (never a panic deep in a render call).
type Config struct {
	// Loader performs the actual block I/O.
	Loader BlockLoader
	// MaxLevel returns the number of mipmap levels for a given setup, used
	// to compute fetch priority as MaxLevel(setup) - level (coarser
	// levels load first).
	MaxLevel func(setup int) int
	// NumPriorityLevels bounds the priority queue's sub-queue count.
	// Priorities reach MaxLevel(setup) (for level 0), so every level gets
	// its own sub-queue only when NumPriorityLevels > MaxLevel(setup);
	// larger priorities share the last sub-queue.
	NumPriorityLevels int
	// NumFetchers is the fixed size of the background fetcher pool.
	NumFetchers int
	// LRUCapacity bounds the "soft" tier: the number of valid blocks kept
	// strongly referenced before the oldest unpinned one is reclaimed.
	LRUCapacity int
	// PrefetchCells records whether neighbor prefetch is wanted. The cache
	// does not read it; it only exposes EnqueuePrefetch, which grid.Grid
	// calls when its own Prefetch field is true.
	PrefetchCells bool
	// Logger receives LoaderFailure and fetcher pause/wake events. Defaults
	// to logrus.StandardLogger() if nil.
	Logger logrus.FieldLogger
}

func (c Config) validate() error {
	if c.Loader == nil {
		return errors.New("cache: Config.Loader is required")
	}
	if c.MaxLevel == nil {
		return errors.New("cache: Config.MaxLevel is required")
	}
	if c.NumPriorityLevels < 1 {
		return errors.New("cache: Config.NumPriorityLevels must be >= 1")
	}
	if c.NumFetchers < 1 {
		return errors.New("cache: Config.NumFetchers must be >= 1")
	}
	if c.LRUCapacity < 1 {
		return errors.New("cache: Config.LRUCapacity must be >= 1")
	}
	return nil
}
