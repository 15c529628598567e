package core

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// ExecutorParallel fans rows out across goroutines.
	ExecutorParallel = "parallel"
	// ExecutorSerial runs every row on the calling goroutine.
	ExecutorSerial = "serial"
)

// ParallelExecutor splits the row range into chunks processed by at most
// Workers goroutines.
type ParallelExecutor struct {
	Workers int
}

// NewParallelExecutor sizes the worker limit from GOMAXPROCS.
func NewParallelExecutor() *ParallelExecutor {
	return &ParallelExecutor{Workers: runtime.GOMAXPROCS(0)}
}

// Name returns the registry key.
func (p *ParallelExecutor) Name() string { return ExecutorParallel }

// Rows runs fn over [0, h) in contiguous chunks and waits for all of them.
func (p *ParallelExecutor) Rows(h int, fn func(y0, y1 int)) {
	if h <= 0 {
		return
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 || h == 1 {
		fn(0, h)
		return
	}
	chunks := workers * 4
	if chunks > h {
		chunks = h
	}
	per := (h + chunks - 1) / chunks

	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += per {
		y1 := y0 + per
		if y1 > h {
			y1 = h
		}
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

// SerialExecutor runs kernels on the calling goroutine.
type SerialExecutor struct{}

// Name returns the registry key.
func (SerialExecutor) Name() string { return ExecutorSerial }

// Rows calls fn once with the full range.
func (SerialExecutor) Rows(h int, fn func(y0, y1 int)) {
	if h <= 0 {
		return
	}
	fn(0, h)
}

func init() {
	RegisterExecutor(ExecutorParallel, func() Executor { return NewParallelExecutor() })
	RegisterExecutor(ExecutorSerial, func() Executor { return SerialExecutor{} })
}
