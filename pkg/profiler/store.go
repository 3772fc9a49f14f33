package profiler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

const (
	// DefaultWork is started by NewStore and may be queried while still running.
	DefaultWork = "DefaultWork"
	// DefaultPart is used when a timer ends without an explicit part.
	DefaultPart = "DefaultPart"
)

// part accumulates job durations for one part.
type part struct {
	jobs  map[string]time.Duration
	total time.Duration
}

// Store records work boundaries and accumulates per-part and per-job durations.
// Each map has its own lock and no method holds two of them at once.
type Store struct {
	clock clock.Clock

	startsMu sync.RWMutex
	starts   map[string]time.Time

	endsMu sync.RWMutex
	ends   map[string]time.Time

	partsMu sync.RWMutex
	parts   map[string]*part
}

// NewStore creates a store using the wall clock and starts DefaultWork.
func NewStore() *Store {
	return NewStoreWithClock(clock.NewClock())
}

// NewStoreWithClock creates a store reading time from c and starts DefaultWork.
func NewStoreWithClock(c clock.Clock) *Store {
	s := &Store{
		clock:  c,
		starts: make(map[string]time.Time),
		ends:   make(map[string]time.Time),
		parts:  make(map[string]*part),
	}
	s.starts[DefaultWork] = c.Now()
	return s
}

// Clock returns the clock the store reads time from.
func (s *Store) Clock() clock.Clock {
	return s.clock
}

// StartWork records now as the start of work name.
func (s *Store) StartWork(name string) error {
	now := s.clock.Now()

	s.startsMu.Lock()
	defer s.startsMu.Unlock()
	if _, ok := s.starts[name]; ok {
		return usageError("start_work", name, ErrDuplicateStart)
	}
	s.starts[name] = now
	return nil
}

// EndWork records now as the end of work name.
func (s *Store) EndWork(name string) error {
	start, ok := s.start(name)
	if !ok {
		return usageError("end_work", name, ErrNotStarted)
	}
	now := s.clock.Now()
	if now.Before(start) {
		return &Error{
			Kind: KindConsistency,
			Op:   "end_work",
			Name: name,
			Err:  fmt.Errorf("%w: start %s, end %s", ErrClockRegression, start.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano)),
		}
	}

	s.endsMu.Lock()
	s.ends[name] = now
	s.endsMu.Unlock()
	return nil
}

// RecordJob adds d to job within part. Work must have been started.
// Recording into a work that already ended is ignored.
func (s *Store) RecordJob(job, partName, work string, d time.Duration) error {
	if _, ok := s.start(work); !ok {
		return usageError("record_job", work, ErrNotStarted)
	}
	if _, ok := s.end(work); ok {
		return nil
	}

	s.partsMu.Lock()
	defer s.partsMu.Unlock()
	p, ok := s.parts[partName]
	if !ok {
		p = &part{jobs: make(map[string]time.Duration)}
		s.parts[partName] = p
	}
	p.jobs[job] += d
	p.total += d
	return nil
}

// PartTotal returns the accumulated duration of part, or zero if unknown.
func (s *Store) PartTotal(partName string) time.Duration {
	s.partsMu.RLock()
	defer s.partsMu.RUnlock()
	if p, ok := s.parts[partName]; ok {
		return p.total
	}
	return 0
}

// JobTotal returns the accumulated duration of job within part, or zero if unknown.
func (s *Store) JobTotal(job, partName string) time.Duration {
	s.partsMu.RLock()
	defer s.partsMu.RUnlock()
	if p, ok := s.parts[partName]; ok {
		return p.jobs[job]
	}
	return 0
}

// WorkElapsed returns end minus start for a finished work. DefaultWork may be
// queried while running, in which case the elapsed time up to now is returned.
func (s *Store) WorkElapsed(work string) (time.Duration, error) {
	start, ok := s.start(work)
	if !ok {
		return 0, usageError("work_elapsed", work, ErrNotStarted)
	}
	if end, ok := s.end(work); ok {
		return end.Sub(start), nil
	}
	if work == DefaultWork {
		return s.clock.Since(start), nil
	}
	return 0, usageError("work_elapsed", work, ErrNotEnded)
}

// PartPercent returns the share of work spent in part, in percent.
// A zero elapsed work yields NaN or +Inf.
func (s *Store) PartPercent(partName, work string) (float64, error) {
	elapsed, err := s.WorkElapsed(work)
	if err != nil {
		return 0, err
	}
	return percent(s.PartTotal(partName), elapsed), nil
}

// JobPercent returns the share of work spent in job within part, in percent.
func (s *Store) JobPercent(job, partName, work string) (float64, error) {
	elapsed, err := s.WorkElapsed(work)
	if err != nil {
		return 0, err
	}
	return percent(s.JobTotal(job, partName), elapsed), nil
}

// Works returns the names of all started works, sorted.
func (s *Store) Works() []string {
	s.startsMu.RLock()
	defer s.startsMu.RUnlock()
	names := make([]string, 0, len(s.starts))
	for name := range s.starts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) start(work string) (time.Time, bool) {
	s.startsMu.RLock()
	defer s.startsMu.RUnlock()
	t, ok := s.starts[work]
	return t, ok
}

func (s *Store) end(work string) (time.Time, bool) {
	s.endsMu.RLock()
	defer s.endsMu.RUnlock()
	t, ok := s.ends[work]
	return t, ok
}

func percent(part, whole time.Duration) float64 {
	return float64(part.Nanoseconds()) * 100 / float64(whole.Nanoseconds())
}
