package domain

// Status is the verdict of a single check.
type Status string

const (
	StatusPass Status = "pass"
	// StatusDegraded: reachable, but the intended layer could not be exercised
	// (e.g. TLS failed and only a TCP connect succeeded).
	StatusDegraded Status = "degraded"
	StatusFail     Status = "fail"
)

// OK reports whether the status counts as alive.
func (s Status) OK() bool {
	return s == StatusPass || s == StatusDegraded
}

// FailureKind classifies why a check did not pass.
type FailureKind string

const (
	KindNone           FailureKind = ""
	KindNetwork        FailureKind = "network"
	KindTimeout        FailureKind = "timeout"
	KindTLS            FailureKind = "tls"
	KindStatusMismatch FailureKind = "status_mismatch"
	KindDOMTimeout     FailureKind = "dom_timeout"
	KindAssertion      FailureKind = "assertion"
)

// Transport reports whether the failure happened before any response was
// received, as opposed to a response that did not meet expectations.
func (k FailureKind) Transport() bool {
	switch k {
	case KindNetwork, KindTimeout, KindTLS:
		return true
	}
	return false
}

// CheckKind is the mechanism a check uses.
type CheckKind string

const (
	CheckHTTP    CheckKind = "http"
	CheckTCP     CheckKind = "tcp"
	CheckBrowser CheckKind = "browser"
)
