package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"

	"github.com/Ljiacheng/aleo-std/internal/metrics"
	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders r to w in the given format.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// WriteTable renders r as a table with one row per part and one per job.
func WriteTable(w io.Writer, r Report) error {
	status := "running"
	if r.Ended {
		status = "ended"
	}
	header := fmt.Sprintf("work %s (%s): %s", r.Work, status, r.Human)
	if r.RunID != "" {
		header += "  run " + r.RunID
	}
	if r.Host != nil && r.Host.Hostname != "" {
		header += "  on " + r.Host.Hostname
	}
	fmt.Fprintln(w, header)

	table := tablewriter.NewWriter(w)
	table.Header("Part", "Job", "Total", "Percent")
	for _, p := range r.Parts {
		if err := table.Append(p.Name, "", p.Human, p.Percent.String()); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
		for _, j := range p.Jobs {
			if err := table.Append("", j.Name, j.Human, j.Percent.String()); err != nil {
				return fmt.Errorf("failed to append row: %w", err)
			}
		}
	}
	return table.Render()
}

// WritePrometheus writes the current contents of s in the Prometheus text
// exposition format.
func WritePrometheus(w io.Writer, s *profiler.Store) error {
	families, err := metrics.Registry(s).Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
