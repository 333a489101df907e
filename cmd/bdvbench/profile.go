package main

import "github.com/pkg/profile"

// profileOpt selects a pkg/profile mode, adapted from the teacher's
// profile.Opt (which also unified in a Gio-specific profiler; bdvbench
// has no Gio event loop to hook, so only the pkg/profile modes apply).
type profileOpt string

const (
	profileNone      profileOpt = "none"
	profileCPU       profileOpt = "cpu"
	profileMem       profileOpt = "mem"
	profileBlock     profileOpt = "block"
	profileGoroutine profileOpt = "goroutine"
	profileMutex     profileOpt = "mutex"
	profileTrace     profileOpt = "trace"
)

// start begins profiling per the selected mode and returns the stop
// function; it is always safe to defer.
func (o profileOpt) start() func() {
	switch o {
	case profileCPU:
		return profile.Start(profile.CPUProfile).Stop
	case profileMem:
		return profile.Start(profile.MemProfile).Stop
	case profileBlock:
		return profile.Start(profile.BlockProfile).Stop
	case profileGoroutine:
		return profile.Start(profile.GoroutineProfile).Stop
	case profileMutex:
		return profile.Start(profile.MutexProfile).Stop
	case profileTrace:
		return profile.Start(profile.TraceProfile).Stop
	default:
		return func() {}
	}
}
