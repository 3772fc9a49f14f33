package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

const demoWork = "MyWork"

var demoUnit time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Time a small built-in workload and report it",
	Long: `Runs the MyWork session: Hi_1 sleeps 4 units in part Hi, Hello_1 sleeps
5 units twice and Hello_2 1 unit in part Hello, all inside an outer timer.
Prints the trace, the per-part and per-job percentages, then the report.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().DurationVar(&demoUnit, "unit", 10*time.Millisecond, "duration of one sleep unit")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	rec, store := newRecorder(out)
	ctx := profiler.NewContext(cmd.Context(), rec)

	sleep := func(units int) func() {
		return func() { time.Sleep(time.Duration(units) * demoUnit) }
	}
	in := func(part string) []profiler.EndOption {
		return []profiler.EndOption{profiler.WithPart(part), profiler.WithWork(demoWork)}
	}

	rec.StartWorkTimer(demoWork)
	span := profiler.Start(ctx, demoWork)
	rec.Time("Hi_1", sleep(4), in("Hi")...)
	for i := 0; i < 2; i++ {
		rec.Time("Hello_1", sleep(5), in("Hello")...)
	}
	rec.Time("Hello_2", sleep(1), in("Hello")...)
	span.End(profiler.WithWork(demoWork))
	rec.EndWorkTimer(demoWork)

	rec.AddToTrace("Breakdown", fmt.Sprintf("share of %s per part and per job", demoWork))
	for _, part := range []string{"Hi", "Hello"} {
		rec.PartPercent(part, demoWork)
	}
	rec.JobPercent("Hello_1", "Hello", demoWork)
	rec.JobPercent("Hello_2", "Hello", demoWork)

	return writeReports(out, store, "", []string{demoWork})
}
