package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ljiacheng/aleo-std/internal/logging"
	"github.com/Ljiacheng/aleo-std/internal/plan"
	"github.com/Ljiacheng/aleo-std/internal/server"
	"github.com/Ljiacheng/aleo-std/internal/shutdown"
	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

var (
	servePlan     string
	serveInterval time.Duration
	serveQuiet    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live reports and metrics over HTTP",
	Long: `Starts an HTTP server exposing /health, /metrics, /works and /report.
With --plan the plan is run again and again in the background, each run under
fresh work names, so the endpoints have something to show.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "listen address (default :9464)")
	serveCmd.Flags().StringVar(&servePlan, "plan", "", "workload plan to run in a loop")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", time.Second, "pause between plan runs")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "do not print traces")
}

func runServe(cmd *cobra.Command, _ []string) error {
	var out io.Writer = cmd.OutOrStdout()
	if serveQuiet {
		out = io.Discard
	}
	rec, store := newRecorder(out)
	if store == nil {
		return errors.New("profiling is disabled, nothing to serve")
	}

	var p *plan.Plan
	if servePlan != "" {
		var err error
		if p, err = plan.Load(servePlan); err != nil {
			return err
		}
		p.UniqueWorks = true
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := server.New(store, logger).HTTPServer(cfg.Listen)
	mgr := shutdown.New(10*time.Second, logger)
	mgr.Register("plan", func(context.Context) error {
		cancel()
		return nil
	})
	mgr.Register("http", shutdown.StopHTTPServer(srv))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving", logging.Fields{"listen": cfg.Listen})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if p != nil {
		g.Go(func() error {
			return loopPlan(gctx, rec, p)
		})
	}
	g.Go(func() error {
		err := mgr.Wait(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func loopPlan(ctx context.Context, rec profiler.Recorder, p *plan.Plan) error {
	clk := clock.NewClock()
	runner := plan.NewRunner(rec, clk, logger)
	for {
		if _, err := runner.Run(ctx, p); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		t := clk.NewTimer(serveInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C():
		}
	}
}
