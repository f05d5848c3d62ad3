// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/hamed0406/wazuhcheck/internal/browser"
	"github.com/hamed0406/wazuhcheck/internal/config"
	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
)

func main() {
	cfgFile := pflag.String("config", "", "config file (default is ./.wazuhcheck.yaml or $HOME/.wazuhcheck.yaml)")
	offline := pflag.Bool("offline", false, "skip DNS and TCP reachability checks")
	pflag.Parse()

	p := &printer{out: os.Stdout, errOut: os.Stderr}
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		p.fail("config: " + err.Error())
		os.Exit(1)
	}
	p.ok("config loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if !preflight(ctx, cfg, p, !*offline) {
		os.Exit(1)
	}
}

type printer struct {
	out, errOut io.Writer
	failed      bool
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func (p *printer) ok(msg string)   { fmt.Fprintln(p.out, green.Sprint("✔"), msg) }
func (p *printer) warn(msg string) { fmt.Fprintln(p.errOut, yellow.Sprint("⚠"), msg) }
func (p *printer) fail(msg string) {
	p.failed = true
	fmt.Fprintln(p.errOut, red.Sprint("✖"), msg)
}

// preflight checks everything a run depends on besides the deployment
// itself. Unreachable endpoints are warnings since the deployment may simply
// be down; a missing browser or unwritable log dir are failures.
func preflight(ctx context.Context, cfg config.Config, p *printer, network bool) bool {
	targets := []struct{ name, url string }{
		{"manager", cfg.Manager.URL},
		{"manager_root", cfg.ManagerRoot.URL},
		{"indexer", cfg.Indexer.URL},
		{"dashboard", cfg.Dashboard.URL},
	}
	reach := probe.NewMultiChecker(probe.NewDNSChecker(), probe.NewTCPChecker(3*time.Second))
	for _, t := range targets {
		ep, err := domain.ParseEndpoint(t.url)
		if err != nil {
			p.fail(fmt.Sprintf("%s.url %q: %v", t.name, t.url, err))
			continue
		}
		if !network {
			p.ok(fmt.Sprintf("%s endpoint %s", t.name, ep))
			continue
		}
		if r := reach.Check(ctx, ep.Addr()); r.Success() {
			p.ok(fmt.Sprintf("%s endpoint %s reachable", t.name, ep.Addr()))
		} else {
			p.warn(fmt.Sprintf("%s endpoint %s: %s (%s)", t.name, ep.Addr(), r.Message, r.Kind))
		}
	}

	checkBrowser(cfg.Browser, p)
	checkLogDir(cfg.Log.Dir, p)

	if len(cfg.API.AdminKeys) == 0 {
		p.warn("api.admin_keys is empty; POST /api/runs is open in serve mode.")
	}
	if len(cfg.API.PublicKeys) == 0 {
		p.warn("api.public_keys is empty; read routes are open in serve mode.")
	}
	if cfg.Alert.SlackWebhook == "" {
		p.warn("alert.slack_webhook is empty; alerts only go to the log.")
	} else {
		p.ok("slack webhook configured")
	}

	if p.failed {
		return false
	}
	p.ok("preflight passed")
	return true
}

func checkBrowser(cfg config.BrowserConfig, p *printer) {
	path := cfg.ExecPath
	if path == "" {
		path = browser.FindBinary()
	} else if lp, err := exec.LookPath(path); err == nil {
		path = lp
	} else {
		p.fail(fmt.Sprintf("browser.exec_path %q: %v", cfg.ExecPath, err))
		return
	}
	if path == "" {
		p.fail("no chromium/chrome binary found; set browser.exec_path or CHROME_BINARY (dashboard checks will fail)")
		return
	}
	p.ok("browser " + path)
}

func checkLogDir(dir string, p *printer) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.fail(fmt.Sprintf("log.dir %q: %v", dir, err))
		return
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		p.fail(fmt.Sprintf("log.dir %q is not writable: %v", dir, err))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	abs, _ := filepath.Abs(dir)
	p.ok("log dir " + abs + " writable")
}
