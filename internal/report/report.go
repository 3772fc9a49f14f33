// Package report turns a profiler snapshot into a per-part breakdown of one
// work session and renders it as a table, JSON, YAML or Prometheus text.
package report

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Ljiacheng/aleo-std/pkg/profiler"
	"github.com/Ljiacheng/aleo-std/pkg/profiler/format"
)

// Percent is a share of a work session. It may be NaN or infinite when the
// session took no measurable time.
type Percent float64

// MarshalJSON encodes non-finite values as null.
func (p Percent) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// String renders p with three decimals, or n/a and inf.
func (p Percent) String() string {
	f := float64(p)
	switch {
	case math.IsNaN(f):
		return "n/a"
	case math.IsInf(f, 0):
		return "inf"
	}
	return strconv.FormatFloat(f, 'f', 3, 64) + "%"
}

// JobRow is one job of a part.
type JobRow struct {
	Name    string        `json:"name" yaml:"name"`
	Total   time.Duration `json:"total_ns" yaml:"total_ns"`
	Human   string        `json:"total" yaml:"total"`
	Percent Percent       `json:"percent" yaml:"percent"`
}

// PartRow is one part and its jobs.
type PartRow struct {
	Name    string        `json:"name" yaml:"name"`
	Total   time.Duration `json:"total_ns" yaml:"total_ns"`
	Human   string        `json:"total" yaml:"total"`
	Percent Percent       `json:"percent" yaml:"percent"`
	Jobs    []JobRow      `json:"jobs" yaml:"jobs"`
}

// HostInfo identifies the machine a report was produced on.
type HostInfo struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	OS       string `json:"os" yaml:"os"`
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Kernel   string `json:"kernel,omitempty" yaml:"kernel,omitempty"`
}

// Report is the breakdown of one work session.
type Report struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Work      string        `json:"work" yaml:"work"`
	Ended     bool          `json:"ended" yaml:"ended"`
	Elapsed   time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
	Human     string        `json:"elapsed" yaml:"elapsed"`
	Generated time.Time     `json:"generated" yaml:"generated"`
	Host      *HostInfo     `json:"host,omitempty" yaml:"host,omitempty"`
	Parts     []PartRow     `json:"parts" yaml:"parts"`
}

// Build computes the breakdown of work from snap. It fails with the same
// usage errors as Store.WorkElapsed.
func Build(snap profiler.Snapshot, work string) (Report, error) {
	w, ok := snap.Work(work)
	if !ok {
		return Report{}, &profiler.Error{Kind: profiler.KindUsage, Op: "report", Name: work, Err: profiler.ErrNotStarted}
	}
	elapsed, err := w.Elapsed(snap.Taken)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Work:      work,
		Ended:     w.Ended,
		Elapsed:   elapsed,
		Human:     format.Duration(elapsed),
		Generated: snap.Taken,
		Parts:     make([]PartRow, 0, len(snap.Parts)),
	}
	for _, p := range snap.Parts {
		row := PartRow{
			Name:    p.Name,
			Total:   p.Total,
			Human:   format.Duration(p.Total),
			Percent: share(p.Total, elapsed),
			Jobs:    make([]JobRow, 0, len(p.Jobs)),
		}
		for _, j := range p.Jobs {
			row.Jobs = append(row.Jobs, JobRow{
				Name:    j.Name,
				Total:   j.Total,
				Human:   format.Duration(j.Total),
				Percent: share(j.Total, elapsed),
			})
		}
		r.Parts = append(r.Parts, row)
	}
	return r, nil
}

func share(d, elapsed time.Duration) Percent {
	return Percent(float64(d.Nanoseconds()) * 100 / float64(elapsed.Nanoseconds()))
}

var hostInfo = host.Info

// Host reads the static identity of the current machine. Fields that
// cannot be read are left empty.
func Host() *HostInfo {
	info, err := hostInfo()
	if err != nil || info == nil {
		return &HostInfo{}
	}
	return &HostInfo{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: info.Platform,
		Kernel:   info.KernelVersion,
	}
}
