package core

import "sort"

// Size describes the dimensions of a 2D buffer.
type Size struct {
	W int
	H int
}

// Executor runs a row-partitioned kernel. Rows returns only after fn has
// completed for every row in [0, h); fn must not touch rows outside its span.
type Executor interface {
	Name() string
	Rows(h int, fn func(y0, y1 int))
}

// ExecutorFactory constructs an Executor.
type ExecutorFactory func() Executor

var executors = map[string]ExecutorFactory{}

// RegisterExecutor adds an executor factory under the provided name.
func RegisterExecutor(name string, f ExecutorFactory) {
	if name == "" || f == nil {
		return
	}
	executors[name] = f
}

// ExecutorNames lists registered executors in sorted order.
func ExecutorNames() []string {
	names := make([]string, 0, len(executors))
	for name := range executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupExecutor constructs the executor registered under name.
func LookupExecutor(name string) (Executor, bool) {
	f, ok := executors[name]
	if !ok {
		return nil, false
	}
	return f(), true
}
