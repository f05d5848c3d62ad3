package browser

import (
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Options controls how a browser is started and how long checks wait.
type Options struct {
	ExecPath         string
	Headless         bool
	NoSandbox        bool
	IgnoreCertErrors bool
	// ExtraFlags are command line switches, "name" or "name=value", with or
	// without leading dashes.
	ExtraFlags    []string
	WaitTimeout   time.Duration
	PollInterval  time.Duration
	LaunchTimeout time.Duration
}

// DefaultOptions matches the flags the dashboard smoke tests always used:
// --ignore-certificate-errors --headless --no-sandbox, 10s wait ceiling.
func DefaultOptions() Options {
	return Options{
		Headless:         true,
		NoSandbox:        true,
		IgnoreCertErrors: true,
		WaitTimeout:      10 * time.Second,
		PollInterval:     500 * time.Millisecond,
		LaunchTimeout:    30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = d.WaitTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.LaunchTimeout <= 0 {
		o.LaunchTimeout = d.LaunchTimeout
	}
	if o.ExecPath == "" {
		o.ExecPath = FindBinary()
	}
	return o
}

// Flags returns the chrome switches these options add on top of chromedp's
// defaults.
func (o Options) Flags() map[string]any {
	f := map[string]any{
		"disable-dev-shm-usage": true,
	}
	if o.Headless {
		f["headless"] = true
		f["hide-scrollbars"] = true
		f["mute-audio"] = true
	} else {
		f["headless"] = false
	}
	if o.NoSandbox {
		f["no-sandbox"] = true
	}
	if o.IgnoreCertErrors {
		f["ignore-certificate-errors"] = true
	}
	for _, raw := range o.ExtraFlags {
		name, val, ok := strings.Cut(strings.TrimLeft(strings.TrimSpace(raw), "-"), "=")
		if name == "" {
			continue
		}
		if ok {
			f[name] = val
		} else {
			f[name] = true
		}
	}
	return f
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, v := range o.Flags() {
		opts = append(opts, chromedp.Flag(name, v))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

var knownBinaries = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"headless-shell",
	"chrome",
}

// FindBinary looks for a Chromium-class browser: CHROME_BINARY first, then
// the usual names on PATH. Empty when nothing is installed.
func FindBinary() string {
	if p := os.Getenv("CHROME_BINARY"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, name := range knownBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}
