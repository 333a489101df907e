package main

import (
	"context"
	"sync"
	"time"

	"git.sr.ht/~bigdata/bdview/block"
)

// benchPayload is a minimal valid/invalid byte buffer, standing in for
// whatever sample encoding a real deployment's BlockLoader would return.
type benchPayload struct {
	mu    sync.Mutex
	valid bool
	data  []byte
}

func (p *benchPayload) IsValid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valid
}

func (p *benchPayload) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// benchLoader simulates bulk I/O with a fixed per-block latency. A
// non-zero failRate fails that fraction of loads (rounded), to exercise
// the LoaderFailure retry path.
type benchLoader struct {
	delay    time.Duration
	bytesPerElement int

	mu    sync.Mutex
	loads int
	fail  func(n int) bool
}

func (l *benchLoader) BytesPerElement() int { return l.bytesPerElement }

func (l *benchLoader) LoadArray(ctx context.Context, timepoint, setup, level int, dims [3]int, origin [3]int64) (block.Payload, error) {
	l.mu.Lock()
	l.loads++
	n := l.loads
	l.mu.Unlock()

	select {
	case <-time.After(l.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.fail != nil && l.fail(n) {
		return nil, errBenchLoad
	}
	size := dims[0] * dims[1] * dims[2] * l.bytesPerElement
	return &benchPayload{valid: true, data: make([]byte, size)}, nil
}

func (l *benchLoader) EmptyArray(dims [3]int) block.Payload {
	return &benchPayload{}
}

type benchErr string

func (e benchErr) Error() string { return string(e) }

const errBenchLoad = benchErr("bdvbench: simulated loader failure")
