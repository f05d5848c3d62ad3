// Package notify delivers check state changes to people.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/probe"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi sends to every notifier and returns all errors combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Log writes notifications to the structured log.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(_ context.Context, title, text string) error {
	l.Logger.Warn("alert", zap.String("title", title), zap.String("text", text))
	return nil
}

// New returns the notifier set for a deployment: the log always, Slack when
// a webhook is configured.
func New(log *zap.Logger, slackWebhook string) Notifier {
	m := Multi{Log{Logger: log}}
	if s := NewSlack(slackWebhook); s != nil {
		m = append(m, s)
	}
	return m
}

// CheckAlert formats a state change of one check.
func CheckAlert(r probe.CheckResult) (title, text string) {
	title = "🔴 Wazuh check DOWN: " + r.Name
	if r.Success() {
		title = "🟢 Wazuh check RECOVERED: " + r.Name
	}

	httpTxt := "n/a"
	if r.StatusCode != 0 {
		httpTxt = fmt.Sprintf("%d", r.StatusCode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\nStatus: %s\nHTTP: %s\nLatency: %.0f ms\n", r.Target, r.Status, httpTxt, r.LatencyMS)
	if r.Kind != "" {
		fmt.Fprintf(&b, "Failure: %s\n", r.Kind)
	}
	if r.Assertion != "" && !r.Success() {
		fmt.Fprintf(&b, "Expected: %s\n", r.Assertion)
	}
	fmt.Fprintf(&b, "Reason: %s\nChecked: %s", r.Message, r.CheckedAt.Format(time.RFC3339))
	return title, b.String()
}
