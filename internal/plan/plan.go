// Package plan describes synthetic workloads in YAML and runs them through a
// profiler.Recorder, so the profiler can be exercised without a real program.
package plan

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

// ErrInvalidPlan is wrapped by every validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// Duration is a time.Duration written as "40ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes d as a duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Step is one timed job, repeated Repeat times.
type Step struct {
	Job    string   `yaml:"job"`
	Part   string   `yaml:"part,omitempty"`
	Sleep  Duration `yaml:"sleep"`
	Repeat int      `yaml:"repeat,omitempty"`
}

// Work is a work session and the steps timed within it.
type Work struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Plan is a whole workload.
type Plan struct {
	Name string `yaml:"name"`
	// Parallel is the number of steps of one work run at the same time.
	Parallel int `yaml:"parallel,omitempty"`
	// UniqueWorks suffixes every work name with the run id, so a plan can run
	// more than once against the same profiler.
	UniqueWorks bool   `yaml:"unique_works,omitempty"`
	Works       []Work `yaml:"works"`
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML plan.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks p and fills in defaults.
func (p *Plan) Validate() error {
	if len(p.Works) == 0 {
		return fmt.Errorf("%w: no works", ErrInvalidPlan)
	}
	if p.Parallel <= 0 {
		p.Parallel = 1
	}

	seen := make(map[string]bool, len(p.Works))
	for i := range p.Works {
		w := &p.Works[i]
		if w.Name == "" {
			return fmt.Errorf("%w: work %d has no name", ErrInvalidPlan, i)
		}
		if w.Name == profiler.DefaultWork {
			return fmt.Errorf("%w: work name %q is reserved", ErrInvalidPlan, w.Name)
		}
		if seen[w.Name] {
			return fmt.Errorf("%w: work %q listed twice", ErrInvalidPlan, w.Name)
		}
		seen[w.Name] = true

		for j := range w.Steps {
			s := &w.Steps[j]
			if s.Job == "" {
				return fmt.Errorf("%w: work %q step %d has no job", ErrInvalidPlan, w.Name, j)
			}
			if s.Sleep < 0 {
				return fmt.Errorf("%w: work %q step %q has negative sleep", ErrInvalidPlan, w.Name, s.Job)
			}
			if s.Repeat <= 0 {
				s.Repeat = 1
			}
		}
	}
	return nil
}
