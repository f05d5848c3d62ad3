package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

// fakePage is a scripted Page. Selectors present in dom match; everything
// else times out. The page counts as ready when readyState is "complete" or
// one of the WaitReady selectors is in dom.
type fakePage struct {
	navErr     error
	readyErr   error
	readyState string
	title      string
	location   string
	dom        map[string]bool

	navigated string
	closed    int
}

func (f *fakePage) Navigate(url string) error {
	f.navigated = url
	return f.navErr
}

func (f *fakePage) WaitReady(orSelectors ...string) error {
	if f.readyErr != nil {
		return f.readyErr
	}
	if f.readyState == "complete" {
		return nil
	}
	for _, sel := range orSelectors {
		if f.dom[sel] {
			return nil
		}
	}
	return fmt.Errorf(`waiting for document.readyState == "complete": %w`, ErrWaitTimeout)
}

func (f *fakePage) WaitFor(selector string) error {
	if f.dom[selector] {
		return nil
	}
	return fmt.Errorf("waiting for %s: %w", selector, ErrWaitTimeout)
}

func (f *fakePage) Has(selector string) (bool, error) { return f.dom[selector], nil }
func (f *fakePage) ReadyState() (string, error)       { return f.readyState, nil }
func (f *fakePage) Title() (string, error)            { return f.title, nil }
func (f *fakePage) Location() (string, error)         { return f.location, nil }

func (f *fakePage) Close() error {
	f.closed++
	return nil
}

func launcherFor(p *fakePage) Launcher {
	return func(context.Context, Options) (Page, error) { return p, nil }
}

func loginPage() *fakePage {
	return &fakePage{
		readyState: "complete",
		title:      "Wazuh",
		location:   "https://localhost/app/login?",
		dom: map[string]bool{
			DefaultUserSelector:     true,
			DefaultPasswordSelector: true,
		},
	}
}

func newLogin(p *fakePage) *LoginFormChecker {
	c := NewLoginFormChecker(DefaultOptions(), zap.NewNop())
	c.Launch = launcherFor(p)
	return c
}

func newHTTPS(p *fakePage) *HTTPSChecker {
	c := NewHTTPSChecker(DefaultOptions(), zap.NewNop())
	c.Launch = launcherFor(p)
	return c
}

func TestLoginFormChecker_Pass(t *testing.T) {
	p := loginPage()
	out := newLogin(p).Check(context.Background(), "https://localhost:443")

	require.Equal(t, domain.StatusPass, out.Status, "%+v", out)
	assert.Equal(t, "https://localhost:443", p.navigated)
	assert.Equal(t, 1, p.closed)
	require.NotNil(t, out.Snapshot)
	assert.True(t, out.Snapshot.Found[DefaultUserSelector])
	assert.True(t, out.Snapshot.Found[DefaultPasswordSelector])
}

func TestLoginFormChecker_OpenSearchTitle(t *testing.T) {
	p := loginPage()
	p.title = "OpenSearch Dashboards"
	out := newLogin(p).Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusPass, out.Status)
}

func TestLoginFormChecker_Failures(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*fakePage)
		kind      domain.FailureKind
		assertion string
	}{
		{
			name:      "wrong title",
			mutate:    func(p *fakePage) { p.title = "Kibana" },
			kind:      domain.KindAssertion,
			assertion: `title contains one of ["Wazuh" "OpenSearch"]`,
		},
		{
			name:      "no username input",
			mutate:    func(p *fakePage) { delete(p.dom, DefaultUserSelector) },
			kind:      domain.KindDOMTimeout,
			assertion: "username input present",
		},
		{
			name:      "no password input",
			mutate:    func(p *fakePage) { delete(p.dom, DefaultPasswordSelector) },
			kind:      domain.KindDOMTimeout,
			assertion: "password input present",
		},
		{
			name:      "never ready",
			mutate:    func(p *fakePage) { p.readyErr = fmt.Errorf("x: %w", ErrWaitTimeout) },
			kind:      domain.KindDOMTimeout,
			assertion: `document.readyState == "complete"`,
		},
		{
			name:      "navigation refused",
			mutate:    func(p *fakePage) { p.navErr = errors.New("page load error net::ERR_CONNECTION_REFUSED") },
			kind:      domain.KindNetwork,
			assertion: "navigation to https://localhost:443",
		},
		{
			name:      "navigation deadline",
			mutate:    func(p *fakePage) { p.navErr = context.DeadlineExceeded },
			kind:      domain.KindTimeout,
			assertion: "navigation to https://localhost:443",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := loginPage()
			c.mutate(p)
			out := newLogin(p).Check(context.Background(), "https://localhost:443")

			assert.Equal(t, domain.StatusFail, out.Status)
			assert.Equal(t, c.kind, out.Kind)
			assert.Equal(t, c.assertion, out.Assertion)
			assert.Equal(t, 1, p.closed, "browser must be released on every exit path")
			require.NotNil(t, out.Snapshot, "failures carry the DOM state")
			assert.Equal(t, p.title, out.Snapshot.Title)
		})
	}
}

func TestLoginFormChecker_ReadyWhenUsernameAppears(t *testing.T) {
	// SPA still loading assets but the form is already rendered.
	p := loginPage()
	p.readyState = "interactive"
	out := newLogin(p).Check(context.Background(), "https://localhost:443")
	require.Equal(t, domain.StatusPass, out.Status, "%+v", out)
	assert.Equal(t, 1, p.closed)

	p = loginPage()
	p.readyState = "loading"
	delete(p.dom, DefaultUserSelector)
	out = newLogin(p).Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusFail, out.Status)
	assert.Equal(t, domain.KindDOMTimeout, out.Kind)
	assert.Equal(t, `document.readyState == "complete"`, out.Assertion)
	require.NotNil(t, out.Snapshot)
	assert.Equal(t, "loading", out.Snapshot.ReadyState)
}

func TestHTTPSChecker_NeedsCompleteReadyState(t *testing.T) {
	// No selector shortcut here: only a complete document counts.
	p := loginPage()
	p.readyState = "interactive"
	out := newHTTPS(p).Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusFail, out.Status)
	assert.Equal(t, domain.KindDOMTimeout, out.Kind)
	assert.Equal(t, `document.readyState == "complete"`, out.Assertion)
	assert.Equal(t, 1, p.closed)
}

func TestHTTPSChecker(t *testing.T) {
	p := loginPage()
	out := newHTTPS(p).Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusPass, out.Status, "%+v", out)
	assert.Equal(t, 1, p.closed)

	p = loginPage()
	p.location = "http://localhost/app/login"
	out = newHTTPS(p).Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusFail, out.Status)
	assert.Equal(t, domain.KindAssertion, out.Kind)
	assert.Equal(t, "url scheme is https", out.Assertion)
	assert.Equal(t, 1, p.closed)
}

func TestChecker_LaunchFailure(t *testing.T) {
	c := NewHTTPSChecker(DefaultOptions(), nil)
	c.Launch = func(context.Context, Options) (Page, error) {
		return nil, errors.New("exec: \"chromium\": executable file not found in $PATH")
	}
	out := c.Check(context.Background(), "https://localhost:443")
	assert.Equal(t, domain.StatusFail, out.Status)
	assert.Equal(t, domain.KindNetwork, out.Kind)
	assert.Equal(t, "browser launches", out.Assertion)
	assert.Nil(t, out.Snapshot)
}

func TestTitleMatches(t *testing.T) {
	assert.True(t, TitleMatches("Wazuh", DefaultTitles))
	assert.True(t, TitleMatches("OpenSearch Dashboards", DefaultTitles))
	assert.False(t, TitleMatches("wazuh", DefaultTitles))
	assert.False(t, TitleMatches("anything", []string{""}))
}
