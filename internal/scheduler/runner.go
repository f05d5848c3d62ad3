package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/repo"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

// Runner runs the check suite periodically and stores every report.
type Runner struct {
	Logger   *zap.Logger
	Suite    *suite.Suite
	Reports  repo.ReportStore
	Interval time.Duration
	Timeout  time.Duration

	// one run at a time; browsers are heavy
	mu sync.Mutex
}

func NewRunner(
	logger *zap.Logger,
	s *suite.Suite,
	reports repo.ReportStore,
	interval time.Duration,
	timeout time.Duration,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Runner{
		Logger:   logger,
		Suite:    s,
		Reports:  reports,
		Interval: interval,
		Timeout:  timeout,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.Interval == 0 {
		r.Logger.Info("runner_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	_, _ = r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner_stopped")
			return
		case <-t.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}

// RunOnce runs the named checks (all when none are given) within the run
// timeout and stores the report. Concurrent callers wait their turn.
func (r *Runner) RunOnce(ctx context.Context, names ...string) (*suite.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	rep, err := r.Suite.Run(cctx, names...)
	if err != nil {
		r.Logger.Warn("runner_run_error", zap.Strings("checks", names), zap.Error(err))
		return nil, err
	}
	if err := r.Reports.Save(ctx, rep); err != nil {
		r.Logger.Warn("runner_save_error", zap.String("run_id", rep.RunID), zap.Error(err))
		return rep, err
	}
	return rep, nil
}
