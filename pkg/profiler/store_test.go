package profiler

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeStore(t *testing.T) (*Store, *fakeclock.FakeClock) {
	t.Helper()
	clk := fakeclock.NewFakeClock(time.Unix(1700000000, 0))
	return NewStoreWithClock(clk), clk
}

func TestStore_MyWorkScenario(t *testing.T) {
	s, clk := newFakeStore(t)
	require.NoError(t, s.StartWork("MyWork"))

	steps := []struct {
		job, part string
		d         time.Duration
	}{
		{"Hi_1", "Hi", 40 * time.Millisecond},
		{"Hello_1", "Hello", 50 * time.Millisecond},
		{"Hello_1", "Hello", 50 * time.Millisecond},
		{"Hello_2", "Hello", 10 * time.Millisecond},
	}
	for _, st := range steps {
		clk.Increment(st.d)
		require.NoError(t, s.RecordJob(st.job, st.part, "MyWork", st.d))
	}
	require.NoError(t, s.EndWork("MyWork"))

	assert.Equal(t, 40*time.Millisecond, s.PartTotal("Hi"))
	assert.Equal(t, 110*time.Millisecond, s.PartTotal("Hello"))
	assert.Equal(t, 100*time.Millisecond, s.JobTotal("Hello_1", "Hello"))
	assert.Equal(t, 10*time.Millisecond, s.JobTotal("Hello_2", "Hello"))

	elapsed, err := s.WorkElapsed("MyWork")
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, elapsed)

	pct, err := s.PartPercent("Hi", "MyWork")
	require.NoError(t, err)
	assert.InDelta(t, 40.0/150*100, pct, 1e-9)

	pct, err = s.JobPercent("Hello_1", "Hello", "MyWork")
	require.NoError(t, err)
	assert.InDelta(t, 100.0/150*100, pct, 1e-9)
}

func TestStore_AccumulationIsAdditive(t *testing.T) {
	s, _ := newFakeStore(t)
	require.NoError(t, s.StartWork("w"))

	var sum time.Duration
	for i := 1; i <= 10; i++ {
		d := time.Duration(i) * time.Millisecond
		sum += d
		require.NoError(t, s.RecordJob("job", "part", "w", d))
	}
	require.NoError(t, s.RecordJob("other", "part", "w", time.Second))

	assert.Equal(t, sum, s.JobTotal("job", "part"))
	assert.Equal(t, sum+time.Second, s.PartTotal("part"))
}

func TestStore_RecordAfterEndIsIgnored(t *testing.T) {
	s, clk := newFakeStore(t)
	require.NoError(t, s.StartWork("w"))
	require.NoError(t, s.RecordJob("job", "part", "w", time.Millisecond))
	clk.Increment(time.Second)
	require.NoError(t, s.EndWork("w"))

	err := s.RecordJob("job", "part", "w", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, time.Millisecond, s.JobTotal("job", "part"))
	assert.Equal(t, time.Millisecond, s.PartTotal("part"))
}

func TestStore_RecordUnstartedWork(t *testing.T) {
	s, _ := newFakeStore(t)
	err := s.RecordJob("job", "part", "missing", time.Millisecond)
	require.Error(t, err)
	assert.True(t, IsUsage(err))
	assert.True(t, errors.Is(err, ErrNotStarted))
	assert.Zero(t, s.PartTotal("part"))
}

func TestStore_DuplicateStart(t *testing.T) {
	s, clk := newFakeStore(t)
	require.NoError(t, s.StartWork("X"))
	first := s.Snapshot()

	clk.Increment(time.Minute)
	err := s.StartWork("X")
	require.Error(t, err)
	assert.True(t, IsUsage(err))
	assert.True(t, errors.Is(err, ErrDuplicateStart))

	w, ok := s.Snapshot().Work("X")
	require.True(t, ok)
	want, _ := first.Work("X")
	assert.Equal(t, want.Start, w.Start)
}

func TestStore_DefaultWorkCannotBeStartedAgain(t *testing.T) {
	s, _ := newFakeStore(t)
	assert.ErrorIs(t, s.StartWork(DefaultWork), ErrDuplicateStart)
}

func TestStore_EndUnstarted(t *testing.T) {
	s, _ := newFakeStore(t)
	err := s.EndWork("nope")
	require.Error(t, err)
	assert.True(t, IsUsage(err))
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStore_ClockRegression(t *testing.T) {
	s, clk := newFakeStore(t)
	require.NoError(t, s.StartWork("w"))

	clk.Increment(-time.Second)
	err := s.EndWork("w")
	require.Error(t, err)
	assert.True(t, IsConsistency(err))
	assert.False(t, IsUsage(err))
	assert.ErrorIs(t, err, ErrClockRegression)

	_, err = s.WorkElapsed("w")
	assert.ErrorIs(t, err, ErrNotEnded)
}

func TestStore_EndAtStartInstantIsAllowed(t *testing.T) {
	s, _ := newFakeStore(t)
	require.NoError(t, s.StartWork("w"))
	require.NoError(t, s.EndWork("w"))

	elapsed, err := s.WorkElapsed("w")
	require.NoError(t, err)
	assert.Zero(t, elapsed)
}

func TestStore_UnknownKeysAreZero(t *testing.T) {
	s, _ := newFakeStore(t)
	assert.Zero(t, s.PartTotal("never-seen"))
	assert.Zero(t, s.JobTotal("never-seen", "never-seen"))

	require.NoError(t, s.RecordJob("job", "part", DefaultWork, time.Millisecond))
	assert.Zero(t, s.JobTotal("never-seen", "part"))
}

func TestStore_WorkElapsed(t *testing.T) {
	s, clk := newFakeStore(t)

	_, err := s.WorkElapsed("missing")
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.StartWork("running"))
	_, err = s.WorkElapsed("running")
	assert.True(t, IsUsage(err))
	assert.ErrorIs(t, err, ErrNotEnded)

	clk.Increment(3 * time.Second)
	elapsed, err := s.WorkElapsed(DefaultWork)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, elapsed)

	_, err = s.PartPercent("p", "running")
	assert.ErrorIs(t, err, ErrNotEnded)
	_, err = s.JobPercent("j", "p", "missing")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStore_DefaultWorkLiveQuery(t *testing.T) {
	s := NewStore()
	first, err := s.WorkElapsed(DefaultWork)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := s.WorkElapsed(DefaultWork)
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestStore_PercentWithZeroElapsed(t *testing.T) {
	s, _ := newFakeStore(t)
	require.NoError(t, s.StartWork("w"))
	require.NoError(t, s.RecordJob("job", "part", "w", time.Millisecond))
	require.NoError(t, s.EndWork("w"))

	pct, err := s.PartPercent("part", "w")
	require.NoError(t, err)
	assert.True(t, math.IsInf(pct, 1), "got %v", pct)

	pct, err = s.JobPercent("never-seen", "part", "w")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(pct), "got %v", pct)
}

func TestStore_ConcurrentRecord(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.StartWork("w"))

	const workers, per = 16, 200
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				assert.NoError(t, s.RecordJob("job", "part", "w", time.Microsecond))
				_ = s.PartTotal("part")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*per*time.Microsecond, s.JobTotal("job", "part"))
	assert.Equal(t, workers*per*time.Microsecond, s.PartTotal("part"))
}

func TestStore_ConcurrentDuplicateStart(t *testing.T) {
	s := NewStore()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.StartWork("race")
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateStart)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStore_Snapshot(t *testing.T) {
	s, clk := newFakeStore(t)
	require.NoError(t, s.StartWork("b"))
	require.NoError(t, s.StartWork("a"))
	require.NoError(t, s.RecordJob("j2", "p", "a", 2*time.Millisecond))
	require.NoError(t, s.RecordJob("j1", "p", "a", time.Millisecond))
	require.NoError(t, s.RecordJob("j", "o", "a", time.Millisecond))
	clk.Increment(time.Second)
	require.NoError(t, s.EndWork("a"))

	snap := s.Snapshot()
	require.Len(t, snap.Works, 3)
	assert.Equal(t, []string{"DefaultWork", "a", "b"}, s.Works())
	assert.Equal(t, "DefaultWork", snap.Works[0].Name)
	assert.True(t, snap.Works[1].Ended)
	assert.False(t, snap.Works[2].Ended)

	require.Len(t, snap.Parts, 2)
	assert.Equal(t, "o", snap.Parts[0].Name)
	assert.Equal(t, "p", snap.Parts[1].Name)
	assert.Equal(t, 3*time.Millisecond, snap.Parts[1].Total)
	assert.Equal(t, []JobStat{{"j1", time.Millisecond}, {"j2", 2 * time.Millisecond}}, snap.Parts[1].Jobs)

	a, _ := snap.Work("a")
	elapsed, err := a.Elapsed(snap.Taken)
	require.NoError(t, err)
	assert.Equal(t, time.Second, elapsed)

	b, _ := snap.Work("b")
	_, err = b.Elapsed(snap.Taken)
	assert.ErrorIs(t, err, ErrNotEnded)

	def, _ := snap.Work(DefaultWork)
	elapsed, err = def.Elapsed(snap.Taken)
	require.NoError(t, err)
	assert.Equal(t, time.Second, elapsed)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "usage", KindUsage.String())
	assert.Equal(t, "consistency", KindConsistency.String())
	assert.Equal(t, "unknown", ErrorKind(7).String())

	err := usageError("end_work", "w", ErrNotStarted)
	assert.Equal(t, `profiler: end_work "w": not started`, err.Error())
}
