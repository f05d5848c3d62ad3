package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
)

const (
	DefaultUserSelector     = `input[type="text"], input[name="username"]`
	DefaultPasswordSelector = `input[type="password"]`
)

// DefaultTitles are the product names a Wazuh dashboard login page shows.
var DefaultTitles = []string{"Wazuh", "OpenSearch"}

// base holds what every dashboard check shares: how to start a browser and
// how to get a page loaded.
type base struct {
	Options Options
	Logger  *zap.Logger
	Launch  Launcher
}

func newBase(opts Options, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{Options: opts.withDefaults(), Logger: log, Launch: LaunchSession(log)}
}

// open launches a browser, navigates to target and waits for the document to
// be complete or one of readyOr to appear. On failure it returns a nil page
// and a filled-in result; the browser is already closed in that case.
func (b base) open(ctx context.Context, target string, res probe.CheckResult, readyOr ...string) (Page, probe.CheckResult, bool) {
	pg, err := b.Launch(ctx, b.Options)
	if err != nil {
		return nil, res.Fail(domain.KindNetwork, "browser launches", err.Error()), false
	}
	if err := pg.Navigate(target); err != nil {
		res = withSnapshot(res.Fail(navKind(err), "navigation to "+target, err.Error()), pg, nil)
		_ = pg.Close()
		return nil, res, false
	}
	if err := pg.WaitReady(readyOr...); err != nil {
		res = withSnapshot(res.Fail(waitKind(err), `document.readyState == "complete"`, err.Error()), pg, nil)
		_ = pg.Close()
		return nil, res, false
	}
	return pg, res, true
}

// HTTPSChecker loads the dashboard and asserts it is served over HTTPS.
type HTTPSChecker struct {
	base
}

func NewHTTPSChecker(opts Options, log *zap.Logger) *HTTPSChecker {
	return &HTTPSChecker{base: newBase(opts, log)}
}

func (c *HTTPSChecker) Check(ctx context.Context, target string) probe.CheckResult {
	start := time.Now()
	res := probe.CheckResult{Name: "HTTPS", Target: target, CheckedAt: start.UTC()}
	defer func() { c.Logger.Debug("browser_check_done", zap.String("check", res.Name), zap.String("status", string(res.Status))) }()

	pg, res, ok := c.open(ctx, target, res)
	if !ok {
		res.LatencyMS = probe.SinceMS(start)
		return res
	}
	defer pg.Close()

	loc, err := pg.Location()
	res.LatencyMS = probe.SinceMS(start)
	if err != nil {
		res = withSnapshot(res.Fail(domain.KindNetwork, "read current url", err.Error()), pg, nil)
		return res
	}
	u, err := url.Parse(loc)
	if err != nil || u.Scheme != "https" {
		res = withSnapshot(res.Fail(domain.KindAssertion, "url scheme is https", "current url "+loc), pg, nil)
		return res
	}
	res = withSnapshot(res.Pass("served over https: "+loc), pg, nil)
	return res
}

// LoginFormChecker loads the dashboard and asserts the login page is there:
// a known product title plus a username and a password input.
type LoginFormChecker struct {
	base
	Titles           []string
	UserSelector     string
	PasswordSelector string
}

func NewLoginFormChecker(opts Options, log *zap.Logger) *LoginFormChecker {
	return &LoginFormChecker{
		base:             newBase(opts, log),
		Titles:           DefaultTitles,
		UserSelector:     DefaultUserSelector,
		PasswordSelector: DefaultPasswordSelector,
	}
}

func (c *LoginFormChecker) Check(ctx context.Context, target string) probe.CheckResult {
	start := time.Now()
	res := probe.CheckResult{Name: "LoginForm", Target: target, CheckedAt: start.UTC()}
	defer func() { c.Logger.Debug("browser_check_done", zap.String("check", res.Name), zap.String("status", string(res.Status))) }()

	pg, res, ok := c.open(ctx, target, res, c.UserSelector)
	if !ok {
		res.LatencyMS = probe.SinceMS(start)
		return res
	}
	defer pg.Close()

	found := map[string]bool{}
	title, err := pg.Title()
	if err != nil {
		res.LatencyMS = probe.SinceMS(start)
		return withSnapshot(res.Fail(domain.KindNetwork, "read page title", err.Error()), pg, found)
	}
	if !TitleMatches(title, c.Titles) {
		res.LatencyMS = probe.SinceMS(start)
		return withSnapshot(res.Fail(domain.KindAssertion,
			fmt.Sprintf("title contains one of %q", c.Titles), fmt.Sprintf("title %q", title)), pg, found)
	}

	for _, sel := range []struct{ name, selector string }{
		{"username input present", c.UserSelector},
		{"password input present", c.PasswordSelector},
	} {
		if err := pg.WaitFor(sel.selector); err != nil {
			found[sel.selector] = false
			res.LatencyMS = probe.SinceMS(start)
			return withSnapshot(res.Fail(waitKind(err), sel.name, err.Error()), pg, found)
		}
		found[sel.selector] = true
	}

	res.LatencyMS = probe.SinceMS(start)
	return withSnapshot(res.Pass("login form present, title "+fmt.Sprintf("%q", title)), pg, found)
}

// TitleMatches reports whether title contains any of names. Matching is case
// sensitive, product names are stable.
func TitleMatches(title string, names []string) bool {
	for _, n := range names {
		if n != "" && strings.Contains(title, n) {
			return true
		}
	}
	return false
}

// withSnapshot records what the page looked like. Reads are best effort: the
// page may already be broken.
func withSnapshot(res probe.CheckResult, pg Page, found map[string]bool) probe.CheckResult {
	snap := &probe.Snapshot{Found: found}
	snap.ReadyState, _ = pg.ReadyState()
	snap.Title, _ = pg.Title()
	snap.URL, _ = pg.Location()
	if len(snap.Found) == 0 {
		snap.Found = nil
	}
	res.Snapshot = snap
	return res
}

func waitKind(err error) domain.FailureKind {
	if errors.Is(err, ErrWaitTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindDOMTimeout
	}
	return domain.KindNetwork
}

func navKind(err error) domain.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	return domain.KindNetwork
}
