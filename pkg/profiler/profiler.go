// Package profiler accumulates how long named jobs take, grouped into parts
// and measured against work sessions, and prints an indented trace of timers.
//
// Typical use:
//
//	p := profiler.New()
//	p.StartWorkTimer("compile")
//	t := p.StartTimer("parse main.go")
//	...
//	p.EndTimer(t, profiler.WithPart("parsing"), profiler.WithWork("compile"))
//	p.EndWorkTimer("compile")
//	p.PartPercent("parsing", "compile")
package profiler

import (
	"errors"
	"io"
	"os"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/Ljiacheng/aleo-std/internal/logging"
	"github.com/Ljiacheng/aleo-std/pkg/profiler/format"
)

// Timer is returned by StartTimer and handed back to EndTimer.
type Timer struct {
	Msg   string
	Start time.Time
}

// Recorder is implemented by Profiler and by Nop.
type Recorder interface {
	StartWorkTimer(work string)
	EndWorkTimer(work string)
	StartTimer(msg string) Timer
	EndTimer(t Timer, opts ...EndOption)
	AddToTrace(title, msg string)
	PartPercent(part, work string) float64
	JobPercent(job, part, work string) float64
	Time(msg string, fn func(), opts ...EndOption)
}

type endOptions struct {
	part string
	work string
}

// EndOption configures where EndTimer accumulates a job.
type EndOption func(*endOptions)

// WithPart accumulates the job into part instead of DefaultPart.
func WithPart(part string) EndOption {
	return func(o *endOptions) { o.part = part }
}

// WithWork attributes the job to work instead of DefaultWork.
func WithWork(work string) EndOption {
	return func(o *endOptions) { o.work = work }
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithClock makes the profiler read time from c.
func WithClock(c clock.Clock) Option {
	return func(p *Profiler) { p.clock = c }
}

// WithOutput sends trace lines to w.
func WithOutput(w io.Writer) Option {
	return func(p *Profiler) { p.out = w }
}

// WithLogger sets the logger errors are reported to.
func WithLogger(l *logging.Logger) Option {
	return func(p *Profiler) { p.log = l }
}

// WithStrict controls whether usage errors panic after being logged.
func WithStrict(strict bool) Option {
	return func(p *Profiler) { p.strict = strict }
}

// Profiler prints timer traces and feeds their durations into a Store.
type Profiler struct {
	clock   clock.Clock
	out     io.Writer
	log     *logging.Logger
	strict  bool
	store   *Store
	indent  Indent
	printer *format.Printer
}

var _ Recorder = (*Profiler)(nil)

// New creates a Profiler with its own Store. DefaultWork starts now.
func New(opts ...Option) *Profiler {
	p := &Profiler{
		clock:  clock.NewClock(),
		out:    os.Stdout,
		log:    logging.NewLogger(logging.INFO, false),
		strict: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("profiler")
	p.store = NewStoreWithClock(p.clock)
	p.printer = format.NewPrinter(p.out)
	return p
}

// Store returns the statistics the profiler accumulates into.
func (p *Profiler) Store() *Store {
	return p.store
}

// Printer returns the trace printer.
func (p *Profiler) Printer() *format.Printer {
	return p.printer
}

// Depth returns the current timer nesting depth.
func (p *Profiler) Depth() int {
	return p.indent.Depth()
}

// StartWorkTimer starts work session work.
func (p *Profiler) StartWorkTimer(work string) {
	p.check(p.store.StartWork(work))
}

// EndWorkTimer ends work session work.
func (p *Profiler) EndWorkTimer(work string) {
	p.check(p.store.EndWork(work))
}

// StartTimer prints a Start line and returns a timer for EndTimer.
func (p *Profiler) StartTimer(msg string) Timer {
	p.printer.Start(p.indent.Enter(), msg)
	return Timer{Msg: msg, Start: p.clock.Now()}
}

// EndTimer accumulates the time since t started and prints an End line.
func (p *Profiler) EndTimer(t Timer, opts ...EndOption) {
	o := endOptions{part: DefaultPart, work: DefaultWork}
	for _, opt := range opts {
		opt(&o)
	}
	elapsed := p.clock.Since(t.Start)
	// leave the level before check may panic
	depth := p.indent.Exit()
	p.check(p.store.RecordJob(t.Msg, o.part, o.work, elapsed))
	p.printer.End(depth, t.Msg, o.part, elapsed)
}

// Time runs fn between StartTimer and EndTimer.
func (p *Profiler) Time(msg string, fn func(), opts ...EndOption) {
	t := p.StartTimer(msg)
	defer p.EndTimer(t, opts...)
	fn()
}

// AddToTrace prints a titled message at the current depth.
func (p *Profiler) AddToTrace(title, msg string) {
	p.printer.Trace(p.indent.Depth(), title, msg)
}

// PartPercent prints and returns the share of work spent in part.
func (p *Profiler) PartPercent(part, work string) float64 {
	pct, err := p.store.PartPercent(part, work)
	if !p.check(err) {
		return 0
	}
	p.printer.PartPercent(work, part, pct, p.store.PartTotal(part))
	return pct
}

// JobPercent prints and returns the share of work spent in job.
func (p *Profiler) JobPercent(job, part, work string) float64 {
	pct, err := p.store.JobPercent(job, part, work)
	if !p.check(err) {
		return 0
	}
	p.printer.JobPercent(work, part, job, pct, p.store.JobTotal(job, part))
	return pct
}

// check logs err and panics when the error is fatal for the caller.
// It reports whether err was nil.
func (p *Profiler) check(err error) bool {
	if err == nil {
		return true
	}
	fields := logging.Fields{"error": err.Error()}
	var pe *Error
	if errors.As(err, &pe) {
		fields["op"] = pe.Op
		fields["name"] = pe.Name
		fields["kind"] = pe.Kind.String()
	}
	p.log.Error("instrumentation error", fields)
	if IsConsistency(err) || p.strict {
		panic(err)
	}
	return false
}
