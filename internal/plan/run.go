package plan

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ljiacheng/aleo-std/internal/logging"
	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

// Result describes one run of a plan.
type Result struct {
	RunID string
	// Works holds the work names as recorded, in plan order.
	Works    []string
	Duration time.Duration
}

// Runner executes plans against a Recorder.
type Runner struct {
	rec   profiler.Recorder
	clock clock.Clock
	log   *logging.Logger
}

// NewRunner creates a runner sleeping on clk and timing steps with rec.
func NewRunner(rec profiler.Recorder, clk clock.Clock, log *logging.Logger) *Runner {
	return &Runner{rec: rec, clock: clk, log: log.WithComponent("plan")}
}

// Run executes every work of p in order. Steps of one work run on up to
// p.Parallel goroutines. Cancelling ctx stops pending sleeps; works already
// started are still ended so the profiler stays consistent.
func (r *Runner) Run(ctx context.Context, p *Plan) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	start := r.clock.Now()

	for _, w := range p.Works {
		name := w.Name
		if p.UniqueWorks {
			name = fmt.Sprintf("%s-%s", w.Name, res.RunID[:8])
		}
		res.Works = append(res.Works, name)

		r.log.Debug("starting work", logging.Fields{"work": name, "steps": len(w.Steps)})
		r.rec.StartWorkTimer(name)
		err := r.runWork(ctx, p.Parallel, name, w.Steps)
		r.rec.EndWorkTimer(name)
		if err != nil {
			res.Duration = r.clock.Since(start)
			return res, fmt.Errorf("work %s: %w", name, err)
		}
	}

	res.Duration = r.clock.Since(start)
	r.log.Info("plan finished", logging.Fields{"plan": p.Name, "run_id": res.RunID, "duration": res.Duration.String()})
	return res, nil
}

func (r *Runner) runWork(ctx context.Context, parallel int, work string, steps []Step) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, s := range steps {
		s := s
		g.Go(func() error {
			part := s.Part
			if part == "" {
				part = profiler.DefaultPart
			}
			for i := 0; i < s.Repeat; i++ {
				var err error
				r.rec.Time(s.Job, func() {
					err = r.sleep(ctx, time.Duration(s.Sleep))
				}, profiler.WithPart(part), profiler.WithWork(work))
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := r.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
