package project

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Single projects one Source directly onto the target in a single pass,
// with no multi-resolution fallback. It is used when
// Config.UseVolatileIfAvailable is false, or a source has only one
// resident mipmap level worth trying.
type Single struct {
	source   Source
	convert  Converter
	target   *image.NRGBA
	width    int
	height   int
	workers  int
	executor func(func())

	mu             sync.Mutex
	cancelled      bool
	valid          bool
	lastFrameNanos int64
}

// NewSingle builds a Single projector. workers bounds the row-range
// fan-out; executor, if non-nil, is used to dispatch each row range
// instead of running it inline.
func NewSingle(source Source, convert Converter, target *image.NRGBA, width, height, workers int, executor func(func())) *Single {
	return &Single{
		source:   source,
		convert:  convert,
		target:   target,
		width:    width,
		height:   height,
		workers:  workers,
		executor: executor,
	}
}

func (s *Single) Map(clearUntouched bool) bool {
	start := time.Now()
	s.mu.Lock()
	s.cancelled = false
	s.mu.Unlock()

	var wg sync.WaitGroup
	var sawCancel, sawMiss int32

	for _, rr := range rowRanges(s.height, s.workers) {
		rr := rr
		wg.Add(1)
		task := func() {
			defer wg.Done()
			for y := rr[0]; y < rr[1]; y++ {
				if s.isCancelled() {
					atomic.StoreInt32(&sawCancel, 1)
					return
				}
				for x := 0; x < s.width; x++ {
					sample, ok := s.source.Sample(x, y)
					switch {
					case ok:
						c, a := s.convert(sample)
						setPixel(s.target, x, y, c, a)
					case clearUntouched:
						clearPixel(s.target, x, y)
					}
					if !ok {
						atomic.StoreInt32(&sawMiss, 1)
					}
				}
			}
		}
		runTask(s.executor, task)
	}
	wg.Wait()

	success := atomic.LoadInt32(&sawCancel) == 0
	s.mu.Lock()
	if success && atomic.LoadInt32(&sawMiss) == 0 {
		s.valid = true
	}
	s.lastFrameNanos = time.Since(start).Nanoseconds()
	s.mu.Unlock()
	return success
}

func (s *Single) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *Single) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Single) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

func (s *Single) LastFrameNanos() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameNanos
}
