package profiler

import (
	"sort"
	"time"
)

// WorkStat is a copy of one work session's boundaries.
type WorkStat struct {
	Name  string    `json:"name" yaml:"name"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	Ended bool      `json:"ended" yaml:"ended"`
}

// JobStat is the accumulated duration of one job.
type JobStat struct {
	Name  string        `json:"name" yaml:"name"`
	Total time.Duration `json:"total" yaml:"total"`
}

// PartStat is the accumulated duration of one part and its jobs.
type PartStat struct {
	Name  string        `json:"name" yaml:"name"`
	Total time.Duration `json:"total" yaml:"total"`
	Jobs  []JobStat     `json:"jobs" yaml:"jobs"`
}

// Snapshot is a point-in-time copy of the store, sorted by name.
// Each map is copied under its own lock, so works and parts may be
// taken a few instants apart.
type Snapshot struct {
	Taken time.Time  `json:"taken" yaml:"taken"`
	Works []WorkStat `json:"works" yaml:"works"`
	Parts []PartStat `json:"parts" yaml:"parts"`
}

// Snapshot copies the store contents.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Taken: s.clock.Now()}

	s.startsMu.RLock()
	for name, start := range s.starts {
		snap.Works = append(snap.Works, WorkStat{Name: name, Start: start})
	}
	s.startsMu.RUnlock()

	s.endsMu.RLock()
	for i := range snap.Works {
		if end, ok := s.ends[snap.Works[i].Name]; ok {
			snap.Works[i].End = end
			snap.Works[i].Ended = true
		}
	}
	s.endsMu.RUnlock()

	s.partsMu.RLock()
	for name, p := range s.parts {
		ps := PartStat{Name: name, Total: p.total, Jobs: make([]JobStat, 0, len(p.jobs))}
		for job, d := range p.jobs {
			ps.Jobs = append(ps.Jobs, JobStat{Name: job, Total: d})
		}
		sort.Slice(ps.Jobs, func(i, j int) bool { return ps.Jobs[i].Name < ps.Jobs[j].Name })
		snap.Parts = append(snap.Parts, ps)
	}
	s.partsMu.RUnlock()

	sort.Slice(snap.Works, func(i, j int) bool { return snap.Works[i].Name < snap.Works[j].Name })
	sort.Slice(snap.Parts, func(i, j int) bool { return snap.Parts[i].Name < snap.Parts[j].Name })
	return snap
}

// Work returns the stat for name, if present.
func (s Snapshot) Work(name string) (WorkStat, bool) {
	for _, w := range s.Works {
		if w.Name == name {
			return w, true
		}
	}
	return WorkStat{}, false
}

// Elapsed follows the same rules as Store.WorkElapsed, measured against
// the time the snapshot was taken.
func (w WorkStat) Elapsed(now time.Time) (time.Duration, error) {
	if w.Ended {
		return w.End.Sub(w.Start), nil
	}
	if w.Name == DefaultWork {
		return now.Sub(w.Start), nil
	}
	return 0, usageError("work_elapsed", w.Name, ErrNotEnded)
}
