package domain

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint is a fixed host/port/scheme a check talks to.
type Endpoint struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ParseEndpoint splits a http(s) URL into an Endpoint. A missing port takes
// the scheme default.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: missing host", raw)
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Endpoint{}, fmt.Errorf("parse endpoint %q: bad port %q", raw, p)
		}
		port = n
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return Endpoint{Scheme: scheme, Host: u.Hostname(), Port: port, Path: path}, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// Addr is host:port, suitable for net.Dial.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL rebuilds the request URL. The port is always explicit.
func (e Endpoint) URL() string {
	return e.Scheme + "://" + e.Addr() + e.Path
}

func (e Endpoint) String() string { return e.URL() }
