package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// TCPChecker only verifies that a port accepts connections.
type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{Timeout: timeout}}
}

// Check dials target, which is either host:port or a http(s) URL.
func (c *TCPChecker) Check(ctx context.Context, target string) CheckResult {
	res := CheckResult{Name: "TCP", Target: target, CheckedAt: time.Now().UTC()}

	addr := target
	if strings.Contains(target, "://") {
		ep, err := domain.ParseEndpoint(target)
		if err != nil {
			return res.Fail(domain.KindNetwork, "valid target", err.Error())
		}
		addr = ep.Addr()
	}

	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	res.LatencyMS = SinceMS(start)
	if err != nil {
		return res.Fail(Classify(err), "tcp port reachable", err.Error())
	}
	_ = conn.Close()

	return res.Pass("connected to " + addr)
}
