package profiler

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ljiacheng/aleo-std/internal/logging"
)

func newTestProfiler(t *testing.T, opts ...Option) (*Profiler, *fakeclock.FakeClock, *bytes.Buffer) {
	t.Helper()
	t.Setenv("CLICOLOR", "0")
	clk := fakeclock.NewFakeClock(time.Unix(1700000000, 0))
	var out bytes.Buffer
	opts = append([]Option{WithClock(clk), WithOutput(&out), WithLogger(logging.Nop())}, opts...)
	return New(opts...), clk, &out
}

func TestProfiler_Timers(t *testing.T) {
	p, clk, out := newTestProfiler(t)
	p.StartWorkTimer("MyWork")

	outer := p.StartTimer("outer")
	inner := p.StartTimer("inner")
	assert.Equal(t, 2, p.Depth())
	clk.Increment(40 * time.Millisecond)
	p.EndTimer(inner, WithPart("Hi"), WithWork("MyWork"))
	clk.Increment(10 * time.Millisecond)
	p.EndTimer(outer, WithWork("MyWork"))
	assert.Equal(t, 0, p.Depth())

	p.EndWorkTimer("MyWork")

	assert.Equal(t, 40*time.Millisecond, p.Store().JobTotal("inner", "Hi"))
	assert.Equal(t, 50*time.Millisecond, p.Store().JobTotal("outer", DefaultPart))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Start:   outer", lines[0])
	assert.Equal(t, "  Start:   inner", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "  End:     inner Hi..."), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], "40.000ms"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "End:     outer ..."), lines[3])
	assert.True(t, strings.HasSuffix(lines[3], "50.000ms"), lines[3])

	out.Reset()
	pct := p.PartPercent("Hi", "MyWork")
	assert.InDelta(t, 80.0, pct, 1e-9)
	assert.Equal(t, "MyWork->Hi: 80.000% 40.000ms\n", out.String())

	out.Reset()
	pct = p.JobPercent("outer", DefaultPart, "MyWork")
	assert.InDelta(t, 100.0, pct, 1e-9)
	assert.Equal(t, "MyWork->DefaultPart->outer: 100.000% 50.000ms\n", out.String())
}

func TestProfiler_DefaultWorkAndTime(t *testing.T) {
	p, clk, _ := newTestProfiler(t)
	p.Time("step", func() { clk.Increment(time.Second) }, WithPart("io"))
	clk.Increment(time.Second)

	assert.Equal(t, time.Second, p.Store().PartTotal("io"))
	assert.InDelta(t, 50.0, p.PartPercent("io", DefaultWork), 1e-9)
}

func TestProfiler_StrictPanicsOnUsage(t *testing.T) {
	p, _, _ := newTestProfiler(t)
	assert.Panics(t, func() { p.EndWorkTimer("never-started") })
	assert.Panics(t, func() { p.PartPercent("p", "never-started") })
}

func TestProfiler_LenientLogsUsage(t *testing.T) {
	var logs bytes.Buffer
	l := logging.NewLogger(logging.DEBUG, true)
	l.SetOutput(&logs)
	p, _, _ := newTestProfiler(t, WithStrict(false), WithLogger(l))

	assert.NotPanics(t, func() { p.EndWorkTimer("never-started") })
	assert.Zero(t, p.JobPercent("j", "p", "never-started"))
	assert.Contains(t, logs.String(), `"op":"end_work"`)
	assert.Contains(t, logs.String(), `"kind":"usage"`)
	assert.Contains(t, logs.String(), `"component":"profiler"`)
}

func TestProfiler_ConsistencyAlwaysPanics(t *testing.T) {
	p, clk, _ := newTestProfiler(t, WithStrict(false))
	p.StartWorkTimer("w")
	clk.Increment(-time.Minute)
	assert.Panics(t, func() { p.EndWorkTimer("w") })
}

func TestProfiler_StrictPanicKeepsDepth(t *testing.T) {
	p, _, _ := newTestProfiler(t)

	assert.Panics(t, func() {
		p.Time("job", func() {}, WithWork("missing"))
	})
	assert.Equal(t, 0, p.Depth())
}

func TestProfiler_AddToTrace(t *testing.T) {
	p, _, out := newTestProfiler(t)
	tm := p.StartTimer("Hello")
	p.AddToTrace("HelloMsg", "Hello, I\nAm")
	p.EndTimer(tm)

	assert.Contains(t, out.String(), "  StartMsg: HelloMsg\n")
	assert.Contains(t, out.String(), "    Hello, I\n    Am\n")
	assert.Contains(t, out.String(), "  EndMsg: HelloMsg\n")
}

func TestNop(t *testing.T) {
	r := NewRecorder(false)
	_, ok := r.(Nop)
	require.True(t, ok)

	called := false
	r.Time("x", func() { called = true })
	assert.True(t, called)
	r.StartWorkTimer("w")
	r.EndTimer(r.StartTimer("x"), WithWork("never-started"))
	r.EndWorkTimer("w")
	assert.Zero(t, r.PartPercent("p", "w"))
	assert.Zero(t, r.JobPercent("j", "p", "w"))
}

func TestNewRecorder_Enabled(t *testing.T) {
	var out bytes.Buffer
	r := NewRecorder(true, WithOutput(&out), WithLogger(logging.Nop()))
	_, ok := r.(*Profiler)
	assert.True(t, ok)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background()).(Nop)
	assert.True(t, ok)

	p, clk, _ := newTestProfiler(t)
	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))

	func() {
		defer Start(ctx, "load").End(WithPart("io"))
		clk.Increment(time.Millisecond)
	}()
	assert.Equal(t, time.Millisecond, p.Store().JobTotal("load", "io"))

	Span{}.End()
}
