// Package memory is the in-process store used by the status API. Nothing
// survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/wazuhcheck/internal/probe"
	"github.com/hamed0406/wazuhcheck/internal/repo"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

const DefaultHistory = 50

type Store struct {
	mu      sync.RWMutex
	max     int
	reports []*suite.Report // oldest first
	latest  map[string]probe.CheckResult
	alerts  map[string]repo.AlertRecord
}

// New returns a store that keeps the last history reports.
func New(history int) *Store {
	if history < 1 {
		history = DefaultHistory
	}
	return &Store{
		max:     history,
		reports: make([]*suite.Report, 0, history),
		latest:  make(map[string]probe.CheckResult),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Save(ctx context.Context, r *suite.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	if over := len(m.reports) - m.max; over > 0 {
		// copy so the dropped reports can be collected
		m.reports = append(m.reports[:0:0], m.reports[over:]...)
	}
	for _, res := range r.Results {
		cur, ok := m.latest[res.Name]
		if !ok || !res.CheckedAt.Before(cur.CheckedAt) {
			m.latest[res.Name] = res
		}
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (*suite.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.reports) == 0 {
		return nil, repo.ErrNotFound
	}
	return m.reports[len(m.reports)-1], nil
}

func (m *Store) List(ctx context.Context, limit int) ([]*suite.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.reports)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*suite.Report, 0, n)
	for i := len(m.reports) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.reports[i])
	}
	return out, nil
}

func (m *Store) LatestResults(ctx context.Context) ([]probe.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]probe.CheckResult, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) Get(ctx context.Context, check string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.alerts[check]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Store) Set(ctx context.Context, check string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.alerts[check]
	rec.Check = check
	rec.LastState = lastState
	if !sentAt.IsZero() {
		t := sentAt
		rec.LastSentAt = &t
	}
	m.alerts[check] = rec
	return nil
}
