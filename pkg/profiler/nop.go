package profiler

// Nop is a Recorder that does nothing. Use it when profiling is disabled.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) StartWorkTimer(string) {}
func (Nop) EndWorkTimer(string) {}
func (Nop) StartTimer(msg string) Timer { return Timer{Msg: msg} }
func (Nop) EndTimer(Timer, ...EndOption) {}
func (Nop) AddToTrace(string, string) {}
func (Nop) PartPercent(string, string) float64 { return 0 }
func (Nop) JobPercent(string, string, string) float64 { return 0 }
func (Nop) Time(_ string, fn func(), _ ...EndOption) { fn() }

// NewRecorder returns a Profiler built from opts when enabled, Nop otherwise.
func NewRecorder(enabled bool, opts ...Option) Recorder {
	if !enabled {
		return Nop{}
	}
	return New(opts...)
}
