// Package suite runs a set of independent checks and collects a report.
package suite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
)

// ErrUnknownCheck is wrapped by Select and Run for names not in the suite.
var ErrUnknownCheck = errors.New("unknown check")

// Check is one named verification: a checker bound to its target.
type Check struct {
	Name    string           `json:"name" yaml:"name"`
	Kind    domain.CheckKind `json:"kind" yaml:"kind"`
	Target  string           `json:"target" yaml:"target"`
	Checker probe.Checker    `json:"-" yaml:"-"`
}

// Suite runs checks. They share no state, so Concurrency only changes how
// many run at once, never the outcome.
type Suite struct {
	Logger      *zap.Logger
	Checks      []Check
	Concurrency int
	// Timeout bounds each check. Zero leaves it to the checker.
	Timeout time.Duration
}

func New(logger *zap.Logger, concurrency int, timeout time.Duration, checks ...Check) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Suite{Logger: logger, Checks: checks, Concurrency: concurrency, Timeout: timeout}
}

// Names lists the registered check names in registration order.
func (s *Suite) Names() []string {
	out := make([]string, 0, len(s.Checks))
	for _, c := range s.Checks {
		out = append(out, c.Name)
	}
	return out
}

// Select returns the checks with the given names in that order, all of them
// when names is empty. Duplicates are dropped. Unknown names are an error.
func (s *Suite) Select(names ...string) ([]Check, error) {
	if len(names) == 0 {
		return s.Checks, nil
	}
	byName := make(map[string]Check, len(s.Checks))
	for _, c := range s.Checks {
		byName[c.Name] = c
	}
	var (
		out []Check
		err error
	)
	seen := map[string]bool{}
	for _, n := range names {
		c, ok := byName[n]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w %q", ErrUnknownCheck, n))
			continue
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, c)
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Run executes the selected checks once each. Results follow the selection
// order (registration order when names is empty) regardless of concurrency.
func (s *Suite) Run(ctx context.Context, names ...string) (*Report, error) {
	checks, err := s.Select(names...)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   make([]probe.CheckResult, len(checks)),
	}
	s.Logger.Info("run_started", zap.String("run_id", rep.RunID), zap.Int("checks", len(checks)))

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup
	for i, c := range checks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			rep.Results[i] = s.notStarted(ctx, rep.RunID, c)
			continue
		}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			rep.Results[i] = s.runOne(ctx, rep.RunID, c)
		}()
	}
	wg.Wait()

	rep.FinishedAt = time.Now().UTC()
	s.Logger.Info("run_finished",
		zap.String("run_id", rep.RunID),
		zap.Bool("passed", rep.Passed()),
		zap.Int("failed", len(rep.Failures())),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	return rep, nil
}

// notStarted is the result for a check whose slot never freed up before
// ctx ended.
func (s *Suite) notStarted(ctx context.Context, runID string, c Check) probe.CheckResult {
	out := probe.CheckResult{Name: c.Name, Target: c.Target, CheckedAt: time.Now().UTC()}.
		Fail(domain.KindTimeout, "check starts", ctx.Err().Error())
	s.Logger.Warn("check_skipped",
		zap.String("run_id", runID),
		zap.String("check", c.Name),
		zap.Error(ctx.Err()),
	)
	return out
}

func (s *Suite) runOne(ctx context.Context, runID string, c Check) probe.CheckResult {
	cctx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	out := c.Checker.Check(cctx, c.Target)
	out.Name = c.Name
	out.Target = c.Target

	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("check", c.Name),
		zap.String("kind", string(c.Kind)),
		zap.String("target", c.Target),
		zap.String("status", string(out.Status)),
		zap.Int("http_status", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("message", out.Message),
	}
	if out.Success() {
		s.Logger.Info("check_done", fields...)
	} else {
		fields = append(fields, zap.String("failure", string(out.Kind)), zap.String("assertion", out.Assertion))
		s.Logger.Warn("check_failed", fields...)
	}
	return out
}

// Report is the outcome of one suite run.
type Report struct {
	RunID      string              `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time           `json:"finished_at" yaml:"finished_at"`
	Results    []probe.CheckResult `json:"results" yaml:"results"`
}

// Passed is true when every check passed or degraded.
func (r *Report) Passed() bool {
	return len(r.Failures()) == 0
}

func (r *Report) Failures() []probe.CheckResult {
	var out []probe.CheckResult
	for _, res := range r.Results {
		if !res.Success() {
			out = append(out, res)
		}
	}
	return out
}

// Counts tallies results by status.
func (r *Report) Counts() map[domain.Status]int {
	m := map[domain.Status]int{}
	for _, res := range r.Results {
		m[res.Status]++
	}
	return m
}

// Result finds a check result by name.
func (r *Report) Result(name string) (probe.CheckResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return probe.CheckResult{}, false
}

// Err combines one error per failed check, nil when the run passed.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures() {
		err = multierr.Append(err, &CheckError{Result: f})
	}
	return err
}

// CheckError describes a failed check: which assertion failed and what was
// observed.
type CheckError struct {
	Result probe.CheckResult
}

func (e *CheckError) Error() string {
	r := e.Result
	msg := fmt.Sprintf("%s: %s failure", r.Name, r.Kind)
	if r.Assertion != "" {
		msg += fmt.Sprintf(": expected %s", r.Assertion)
	}
	if r.Message != "" {
		msg += ": " + r.Message
	}
	if s := r.Snapshot; s != nil {
		var parts []string
		if s.URL != "" {
			parts = append(parts, "url="+s.URL)
		}
		if s.Title != "" {
			parts = append(parts, fmt.Sprintf("title=%q", s.Title))
		}
		if s.ReadyState != "" {
			parts = append(parts, "readyState="+s.ReadyState)
		}
		keys := make([]string, 0, len(s.Found))
		for k := range s.Found {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%t", k, s.Found[k]))
		}
		if len(parts) > 0 {
			msg += fmt.Sprintf(" %v", parts)
		}
	}
	return msg
}
