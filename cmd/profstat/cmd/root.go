package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ljiacheng/aleo-std/internal/config"
	"github.com/Ljiacheng/aleo-std/internal/logging"
	"github.com/Ljiacheng/aleo-std/internal/report"
	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

const formatPrometheus = "prometheus"

var (
	cfgFile      string
	outputFormat string
	logLevel     string

	cfg    = config.Default()
	logger = logging.Nop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "profstat",
	Short: "Time nested jobs and report where a work session spent its time",
	Long: `profstat drives the profiler library: it prints indented start/end traces
for timed jobs, accumulates their durations per part, and reports each part's
share of a work session as a table, JSON, YAML or Prometheus text.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.profstat/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", report.FormatTable, "output format: table, json, yaml or prometheus")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// initConfig reads in config file and ENV variables if set
func initConfig(cmd *cobra.Command, _ []string) error {
	switch outputFormat {
	case report.FormatTable, report.FormatJSON, report.FormatYAML, formatPrometheus:
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}

	v := viper.New()
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("listen"); f != nil {
		if err := v.BindPFlag("listen", f); err != nil {
			return err
		}
	}

	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if !c.Color {
		os.Setenv("CLICOLOR", "0")
	}

	cfg = c
	logger = cfg.Logger()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.Debug("config loaded", logging.Fields{"enabled": cfg.Enabled, "strict": cfg.Strict, "listen": cfg.Listen})
	return nil
}

// newRecorder builds the recorder described by the loaded config. The store
// is nil when profiling is disabled.
func newRecorder(out io.Writer) (profiler.Recorder, *profiler.Store) {
	rec := profiler.NewRecorder(cfg.Enabled,
		profiler.WithOutput(out),
		profiler.WithLogger(logger),
		profiler.WithStrict(cfg.Strict),
	)
	if p, ok := rec.(*profiler.Profiler); ok {
		return rec, p.Store()
	}
	return rec, nil
}

// writeReports renders the given works of store in the selected format.
func writeReports(w io.Writer, store *profiler.Store, runID string, works []string) error {
	if store == nil {
		fmt.Fprintln(w, "profiling disabled, no report")
		return nil
	}
	if outputFormat == formatPrometheus {
		return report.WritePrometheus(w, store)
	}

	snap := store.Snapshot()
	host := report.Host()
	for _, work := range works {
		r, err := report.Build(snap, work)
		if err != nil {
			return fmt.Errorf("failed to build report for %s: %w", work, err)
		}
		r.RunID = runID
		r.Host = host
		if err := report.Write(w, r, outputFormat); err != nil {
			return err
		}
	}
	return nil
}
