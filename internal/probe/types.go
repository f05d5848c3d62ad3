package probe

import (
	"context"
	"time"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// Snapshot is the state captured at the moment a check finished, so a
// failure can be reported together with what was actually observed.
type Snapshot struct {
	ReadyState string          `json:"ready_state,omitempty" yaml:"ready_state,omitempty"`
	Title      string          `json:"title,omitempty" yaml:"title,omitempty"`
	URL        string          `json:"url,omitempty" yaml:"url,omitempty"`
	Found      map[string]bool `json:"found,omitempty" yaml:"found,omitempty"`
	Fallback   string          `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// CheckResult holds the outcome of a single probe.
//
// StatusCode is the HTTP status when a response was received and 0 for
// transport errors. Assertion names the condition that failed.
type CheckResult struct {
	Name       string             `json:"name" yaml:"name"`
	Target     string             `json:"target" yaml:"target"`
	Status     domain.Status      `json:"status" yaml:"status"`
	Kind       domain.FailureKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Assertion  string             `json:"assertion,omitempty" yaml:"assertion,omitempty"`
	Message    string             `json:"message" yaml:"message"`
	StatusCode int                `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	LatencyMS  float64            `json:"latency_ms" yaml:"latency_ms"`
	Snapshot   *Snapshot          `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	CheckedAt  time.Time          `json:"checked_at" yaml:"checked_at"`
}

// Success is true for pass and degraded results.
func (r CheckResult) Success() bool { return r.Status.OK() }

// Fail returns a copy of r marked as failed.
func (r CheckResult) Fail(kind domain.FailureKind, assertion, msg string) CheckResult {
	r.Status = domain.StatusFail
	r.Kind = kind
	r.Assertion = assertion
	r.Message = msg
	return r
}

// Pass returns a copy of r marked as passed.
func (r CheckResult) Pass(msg string) CheckResult {
	r.Status = domain.StatusPass
	r.Kind = domain.KindNone
	r.Message = msg
	return r
}

// Checker is implemented by any service check (HTTP, TCP, browser).
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

// SinceMS is the elapsed time since start in milliseconds.
func SinceMS(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
