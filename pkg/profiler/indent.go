package profiler

import "sync/atomic"

// Indent tracks the nesting depth of running timers.
// Going below zero means start and end calls are mismatched; it is not checked here.
type Indent struct {
	depth atomic.Int64
}

// Enter increments the depth and returns the depth before the increment.
func (in *Indent) Enter() int {
	return int(in.depth.Add(1) - 1)
}

// Exit decrements the depth and returns the depth after the decrement.
func (in *Indent) Exit() int {
	return int(in.depth.Add(-1))
}

// Depth returns the current depth.
func (in *Indent) Depth() int {
	return int(in.depth.Load())
}
