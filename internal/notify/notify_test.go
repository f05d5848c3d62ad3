package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
)

type recorder struct {
	titles []string
	err    error
}

func (r *recorder) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &recorder{err: errors.New("a down")}
	b := &recorder{}
	c := &recorder{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "t", "x")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	for _, r := range []*recorder{a, b, c} {
		assert.Equal(t, []string{"t"}, r.titles)
	}
}

func TestNew_LogOnlyWithoutWebhook(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core), "")

	m, ok := n.(Multi)
	require.True(t, ok)
	assert.Len(t, m, 1)

	require.NoError(t, n.Send(context.Background(), "title", "text"))
	require.Equal(t, 1, logs.FilterMessage("alert").Len())
}

func TestCheckAlert(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	down := probe.CheckResult{
		Name: "indexer-api", Target: "https://localhost:9200", Status: domain.StatusFail,
		Kind: domain.KindStatusMismatch, Assertion: "status in [200 401]", Message: "503 Service Unavailable",
		StatusCode: 503, LatencyMS: 41.6, CheckedAt: at,
	}
	title, text := CheckAlert(down)
	assert.Equal(t, "🔴 Wazuh check DOWN: indexer-api", title)
	assert.Equal(t, "Target: https://localhost:9200\nStatus: fail\nHTTP: 503\nLatency: 42 ms\n"+
		"Failure: status_mismatch\nExpected: status in [200 401]\nReason: 503 Service Unavailable\nChecked: 2025-03-01T10:00:00Z", text)

	up := probe.CheckResult{Name: "indexer-api", Status: domain.StatusPass, Message: "200 OK", StatusCode: 200, CheckedAt: at}
	title, text = CheckAlert(up)
	assert.Equal(t, "🟢 Wazuh check RECOVERED: indexer-api", title)
	assert.NotContains(t, text, "Expected")
	assert.Contains(t, text, "HTTP: 200")
}
