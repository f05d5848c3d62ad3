// Package catalog builds the Wazuh check set from configuration.
package catalog

import (
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/browser"
	"github.com/hamed0406/wazuhcheck/internal/config"
	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

const (
	ManagerAPI     = "manager-api"
	ManagerAPIRoot = "manager-api-root"
	IndexerAPI     = "indexer-api"
	DashboardHTTPS = "dashboard-https"
	DashboardLogin = "dashboard-login"
)

// Names lists every check in the order they run.
var Names = []string{ManagerAPI, ManagerAPIRoot, IndexerAPI, DashboardHTTPS, DashboardLogin}

// BrowserOptions maps the browser section of cfg onto browser.Options.
func BrowserOptions(cfg config.BrowserConfig) browser.Options {
	return browser.Options{
		ExecPath:         cfg.ExecPath,
		Headless:         cfg.Headless,
		NoSandbox:        cfg.NoSandbox,
		IgnoreCertErrors: cfg.IgnoreCertErrors,
		ExtraFlags:       cfg.ExtraFlags,
		WaitTimeout:      cfg.WaitTimeout,
		PollInterval:     cfg.PollInterval,
		LaunchTimeout:    cfg.LaunchTimeout,
	}
}

// Checks builds the five Wazuh checks.
func Checks(cfg config.Config, log *zap.Logger) []suite.Check {
	if log == nil {
		log = zap.NewNop()
	}
	opts := BrowserOptions(cfg.Browser)

	login := browser.NewLoginFormChecker(opts, log)
	login.Titles = cfg.Dashboard.Titles
	login.UserSelector = cfg.Dashboard.UserSelector
	login.PasswordSelector = cfg.Dashboard.PasswordSelector

	return []suite.Check{
		httpCheck(ManagerAPI, cfg.Manager, cfg.HTTP, log),
		httpCheck(ManagerAPIRoot, cfg.ManagerRoot, cfg.HTTP, log),
		httpCheck(IndexerAPI, cfg.Indexer, cfg.HTTP, log),
		{Name: DashboardHTTPS, Kind: domain.CheckBrowser, Target: cfg.Dashboard.URL, Checker: browser.NewHTTPSChecker(opts, log)},
		{Name: DashboardLogin, Kind: domain.CheckBrowser, Target: cfg.Dashboard.URL, Checker: login},
	}
}

func httpCheck(name string, t config.HTTPTarget, hc config.HTTPConfig, log *zap.Logger) suite.Check {
	c := probe.NewHTTPChecker(hc.Timeout, t.Accept...)
	c.TCPFallback = t.TCPFallback
	c.Logger = log.With(zap.String("check", name))
	return suite.Check{Name: name, Kind: domain.CheckHTTP, Target: t.URL, Checker: c}
}

// NewSuite wires the catalog into a suite using the suite section of cfg.
func NewSuite(cfg config.Config, log *zap.Logger) *suite.Suite {
	return suite.New(log, cfg.Suite.Concurrency, cfg.Suite.CheckTimeout, Checks(cfg, log)...)
}
