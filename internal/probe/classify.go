package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// Classify maps a transport error onto the failure taxonomy. Timeouts win
// over everything else, so a handshake that hangs is a timeout, not a TLS
// failure.
func Classify(err error) domain.FailureKind {
	if err == nil {
		return domain.KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.KindTimeout
	}
	if IsTLSError(err) {
		return domain.KindTLS
	}
	return domain.KindNetwork
}

// IsTLSError reports whether err came out of the TLS layer rather than from
// TCP or HTTP.
func IsTLSError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, http.ErrSchemeMismatch) {
		return true
	}
	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		return true
	}
	var alert tls.AlertError
	if errors.As(err, &alert) {
		return true
	}
	var cve *tls.CertificateVerificationError
	if errors.As(err, &cve) {
		return true
	}
	var uae x509.UnknownAuthorityError
	if errors.As(err, &uae) {
		return true
	}
	var hne x509.HostnameError
	if errors.As(err, &hne) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls: ") || strings.Contains(msg, "remote error: tls")
}
