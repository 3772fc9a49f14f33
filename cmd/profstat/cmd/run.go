package cmd

import (
	"fmt"

	"code.cloudfoundry.org/clock"
	"github.com/spf13/cobra"

	"github.com/Ljiacheng/aleo-std/internal/plan"
)

var runCmd = &cobra.Command{
	Use:   "run <plan.yaml>",
	Short: "Run a workload plan and report every work session",
	Long: `Loads a YAML workload plan, times each of its steps through the profiler,
then prints one report per work session in the selected output format.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rec, store := newRecorder(out)
	res, err := plan.NewRunner(rec, clock.NewClock(), logger).Run(cmd.Context(), p)
	if err != nil {
		return fmt.Errorf("plan %s: %w", p.Name, err)
	}
	return writeReports(out, store, res.RunID, res.Works)
}
