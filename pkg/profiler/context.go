package profiler

import "context"

type key int // unexported context.Context key type to avoid collisions with other packages

const recorderKey key = iota

// NewContext returns a new context that carries r.
func NewContext(ctx context.Context, r Recorder) context.Context {
	return context.WithValue(ctx, recorderKey, r)
}

// FromContext returns the Recorder stored in ctx, or Nop if there is none.
func FromContext(ctx context.Context) Recorder {
	if r, ok := ctx.Value(recorderKey).(Recorder); ok {
		return r
	}
	return Nop{}
}

// Span pairs a running timer with the recorder that started it.
type Span struct {
	r Recorder
	t Timer
}

// Start starts a timer named msg on the Recorder attached to ctx.
//
// Example usage to time the rest of the current function:
//
//	defer profiler.Start(ctx, "load").End(profiler.WithPart("io"))
func Start(ctx context.Context, msg string) Span {
	r := FromContext(ctx)
	return Span{r: r, t: r.StartTimer(msg)}
}

// End ends the timer.
func (s Span) End(opts ...EndOption) {
	if s.r == nil {
		return
	}
	s.r.EndTimer(s.t, opts...)
}
