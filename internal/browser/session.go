package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Page is what the checkers need from a browser tab. Session implements it
// on top of chromedp.
type Page interface {
	Navigate(url string) error
	WaitReady(orSelectors ...string) error
	WaitFor(selector string) error
	Has(selector string) (bool, error)
	ReadyState() (string, error)
	Title() (string, error)
	Location() (string, error)
	Close() error
}

// Launcher starts a fresh browser for one check.
type Launcher func(ctx context.Context, opts Options) (Page, error)

// Session is one browser process with one tab. It is never shared between
// checks.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	log    *zap.Logger

	mu       sync.Mutex
	deadline time.Time
	once     sync.Once
}

var _ Page = (*Session)(nil)

// Launch starts a browser and opens a blank tab. The caller must Close the
// session; Close is safe to call more than once.
func Launch(ctx context.Context, opts Options, log *zap.Logger) (*Session, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		opts: opts,
		log:  log,
	}

	// The first Run allocates the browser. It must not carry a deadline or the
	// browser would be killed when it expires, so the launch timeout is
	// enforced from outside.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(opts.LaunchTimeout)
	defer timer.Stop()
	select {
	case err := <-started:
		if err != nil {
			s.cancel()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-timer.C:
		s.cancel()
		return nil, fmt.Errorf("start browser: no response after %s", opts.LaunchTimeout)
	case <-ctx.Done():
		s.cancel()
		return nil, fmt.Errorf("start browser: %w", ctx.Err())
	}

	log.Debug("browser_launched", zap.Bool("headless", opts.Headless), zap.String("exec_path", opts.ExecPath))
	return s, nil
}

// Navigate starts loading url and returns once the navigation is committed.
// Readiness is left to WaitReady. The wait ceiling for all later waits
// starts here.
func (s *Session) Navigate(url string) error {
	s.mu.Lock()
	s.deadline = time.Now().Add(s.opts.WaitTimeout)
	s.mu.Unlock()

	ctx, cancel := context.WithDeadline(s.ctx, s.waitDeadline())
	defer cancel()
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("page load error %s", errorText)
		}
		return nil
	}))
}

// WaitReady polls until document.readyState is "complete" or any of
// orSelectors matches, whichever comes first.
func (s *Session) WaitReady(orSelectors ...string) error {
	return Poll(s.ctx, s.opts.PollInterval, s.waitDeadline(), `document.readyState == "complete"`, func() (bool, error) {
		st, err := s.ReadyState()
		if st == "complete" {
			return true, nil
		}
		for _, sel := range orSelectors {
			if ok, _ := s.Has(sel); ok {
				return true, nil
			}
		}
		return false, err
	})
}

// WaitFor polls until selector matches at least one element.
func (s *Session) WaitFor(selector string) error {
	return Poll(s.ctx, s.opts.PollInterval, s.waitDeadline(), selector, func() (bool, error) {
		return s.Has(selector)
	})
}

// Has reports whether selector currently matches anything. It does not wait.
func (s *Session) Has(selector string) (bool, error) {
	var nodes []*cdp.Node
	err := s.run(chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (s *Session) ReadyState() (string, error) {
	var state string
	err := s.run(chromedp.Evaluate(`document.readyState`, &state))
	return state, err
}

func (s *Session) Title() (string, error) {
	var title string
	err := s.run(chromedp.Title(&title))
	return title, err
}

func (s *Session) Location() (string, error) {
	var loc string
	err := s.run(chromedp.Location(&loc))
	return loc, err
}

// Close shuts the browser down and releases the allocator.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.log.Debug("browser_closed", zap.Error(err))
	})
	return err
}

// run executes one action bounded by the poll interval so a single stuck
// CDP call cannot eat the whole wait ceiling.
func (s *Session) run(action chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.PollInterval*4)
	defer cancel()
	return chromedp.Run(ctx, action)
}

func (s *Session) waitDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deadline.IsZero() {
		return time.Now().Add(s.opts.WaitTimeout)
	}
	return s.deadline
}

// LaunchSession is the default Launcher.
func LaunchSession(log *zap.Logger) Launcher {
	return func(ctx context.Context, opts Options) (Page, error) {
		s, err := Launch(ctx, opts, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
