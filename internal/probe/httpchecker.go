package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// HTTPChecker issues one unauthenticated GET and compares the status code
// with an accepted set. Certificate validation is disabled.
type HTTPChecker struct {
	Client *http.Client
	// Accept is the set of status codes that count as alive. Empty means any
	// 2xx or 3xx.
	Accept []int
	// TCPFallback: when the TLS handshake itself fails, dial the port and
	// report degraded if it accepts connections.
	TCPFallback bool
	TCP         *TCPChecker
	Logger      *zap.Logger
}

func NewHTTPChecker(timeout time.Duration, accept ...int) *HTTPChecker {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // endpoints use self-signed certs
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout, Transport: tr},
		Accept: accept,
		TCP:    NewTCPChecker(timeout),
		Logger: zap.NewNop(),
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	res := CheckResult{Name: "HTTP", Target: target, CheckedAt: start.UTC()}

	var (
		mu           sync.Mutex
		handshakeErr error
	)
	trace := &httptrace.ClientTrace{
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err != nil {
				mu.Lock()
				handshakeErr = err
				mu.Unlock()
			}
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return res.Fail(domain.KindNetwork, "valid request", err.Error())
	}

	resp, err := h.Client.Do(req)
	res.LatencyMS = SinceMS(start)
	if err != nil {
		kind := Classify(err)
		mu.Lock()
		if kind == domain.KindNetwork && handshakeErr != nil {
			kind = domain.KindTLS
		}
		mu.Unlock()
		if kind == domain.KindTLS && h.TCPFallback {
			return h.fallback(ctx, res, err)
		}
		return res.Fail(kind, "request completes", err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.StatusCode = resp.StatusCode
	if !h.accepts(resp.StatusCode) {
		return res.Fail(domain.KindStatusMismatch, h.describeAccept(), resp.Status)
	}
	return res.Pass(resp.Status)
}

// fallback runs after a TLS failure: the endpoint is considered reachable if
// a plain TCP connection succeeds.
func (h *HTTPChecker) fallback(ctx context.Context, res CheckResult, tlsErr error) CheckResult {
	tcp := h.TCP
	if tcp == nil {
		tcp = NewTCPChecker(h.Client.Timeout)
	}
	out := tcp.Check(ctx, res.Target)
	h.logger().Info("tcp_fallback",
		zap.String("target", res.Target),
		zap.String("tls_error", tlsErr.Error()),
		zap.Bool("tcp_ok", out.Success()),
	)

	res.Snapshot = &Snapshot{Fallback: "tcp"}
	res.LatencyMS += out.LatencyMS
	if !out.Success() {
		return res.Fail(out.Kind, "tcp port reachable after tls failure",
			fmt.Sprintf("tls: %v; tcp: %s", tlsErr, out.Message))
	}
	res.Status = domain.StatusDegraded
	res.Kind = domain.KindTLS
	res.Message = fmt.Sprintf("tls handshake failed (%v); %s", tlsErr, out.Message)
	return res
}

func (h *HTTPChecker) accepts(code int) bool {
	if len(h.Accept) == 0 {
		return code >= 200 && code < 400
	}
	return slices.Contains(h.Accept, code)
}

func (h *HTTPChecker) describeAccept() string {
	if len(h.Accept) == 0 {
		return "status in 2xx-3xx"
	}
	return fmt.Sprintf("status in %v", h.Accept)
}

func (h *HTTPChecker) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
