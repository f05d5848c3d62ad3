package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

type fakeChecker struct {
	out   CheckResult
	calls int
}

func (f *fakeChecker) Check(_ context.Context, _ string) CheckResult {
	f.calls++
	return f.out
}

func TestMultiChecker_RunsAllAndReportsFirstFailure(t *testing.T) {
	ok := &fakeChecker{out: CheckResult{Name: "DNS", Status: domain.StatusPass}}
	bad := &fakeChecker{out: CheckResult{Name: "TCP", Status: domain.StatusFail, Kind: domain.KindNetwork}}
	after := &fakeChecker{out: CheckResult{Name: "X", Status: domain.StatusFail}}

	m := NewMultiChecker(ok, bad, after)
	out := m.Check(context.Background(), "localhost:55000")

	assert.Equal(t, "TCP", out.Name)
	assert.Equal(t, 1, after.calls)
	assert.Len(t, m.Run(context.Background(), "localhost:55000"), 3)
}

func TestDNSChecker_LiteralAndLocalhost(t *testing.T) {
	d := NewDNSChecker()
	lit := d.Check(context.Background(), "https://127.0.0.1:9200")
	assert.Equal(t, domain.StatusPass, lit.Status)
	assert.Equal(t, "127.0.0.1", lit.Target)

	empty := d.Check(context.Background(), "")
	assert.Equal(t, domain.StatusFail, empty.Status)
}
