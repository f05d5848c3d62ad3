package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// DNSChecker verifies that the host of a target resolves. Preflight uses it
// to tell "service down" apart from "wrong hostname in config".
type DNSChecker struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{Resolver: net.DefaultResolver, Timeout: 3 * time.Second}
}

func (d *DNSChecker) Check(ctx context.Context, target string) CheckResult {
	host := extractHost(target)
	res := CheckResult{Name: "DNS", Target: host, CheckedAt: time.Now().UTC()}
	if host == "" {
		return res.Fail(domain.KindNetwork, "valid host", "empty host")
	}
	if ip := net.ParseIP(host); ip != nil {
		return res.Pass("literal address")
	}

	cctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	start := time.Now()
	ips, err := d.Resolver.LookupIPAddr(cctx, host)
	res.LatencyMS = SinceMS(start)
	if err != nil {
		class := "SERVFAIL_or_TIMEOUT"
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			class = "NXDOMAIN"
		}
		return res.Fail(Classify(err), "host resolves", class+": "+err.Error())
	}
	if len(ips) == 0 {
		return res.Fail(domain.KindNetwork, "host resolves", "NO_A_RECORD")
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	return res.Pass("RESOLVES " + strings.Join(addrs, ","))
}

func extractHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		if ep, err := domain.ParseEndpoint(raw); err == nil {
			return ep.Host
		}
		return ""
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return h
	}
	return raw
}
