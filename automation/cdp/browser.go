package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/tbxark/enquirybot/automation"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Launcher starts a dedicated Chrome process per browser.
type Launcher struct {
	ExecPath  string
	Headless  bool
	UserAgent string
	Width     int
	Height    int
}

func NewLauncher(headless bool) *Launcher {
	return &Launcher{
		Headless:  headless,
		UserAgent: DefaultUserAgent,
		Width:     1280,
		Height:    720,
	}
}

func (l *Launcher) Launch(ctx context.Context) (automation.Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.WindowSize(l.Width, l.Height),
		chromedp.UserAgent(l.UserAgent),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...))
		}),
	)
	b := &Browser{
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		idle:        newIdleTracker(),
	}
	chromedp.ListenTarget(tabCtx, b.onEvent)
	if err := chromedp.Run(tabCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(int64(l.Width), int64(l.Height)),
	); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		// The main frame shares the id of its target.
		b.idle.setFrame(cdp.FrameID(c.Target.TargetID))
	}
	return b, nil
}

// Browser drives one Chrome tab.
type Browser struct {
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	idle        *idleTracker
}

func (b *Browser) onEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		args := make([]string, 0, len(ev.Args))
		for _, arg := range ev.Args {
			if arg.Value != nil {
				args = append(args, string(arg.Value))
			} else {
				args = append(args, arg.Description)
			}
		}
		slog.Debug("Browser console", "type", ev.Type, "message", strings.Join(args, " "))
	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails != nil {
			slog.Warn("Browser page error", "error", ev.ExceptionDetails.Text)
		}
	case *page.EventLifecycleEvent:
		b.idle.observe(ev.FrameID, ev.LoaderID, ev.Name)
	}
}

// run executes actions in the tab, bounded by ctx.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func by(sel automation.Selector) chromedp.QueryOption {
	if sel.Kind == automation.ByCSS {
		return chromedp.ByQuery
	}
	return chromedp.BySearch
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.idle.expect()
	return b.run(ctx, chromedp.Navigate(url))
}

// WaitIdle waits until the document of the last navigation reports network
// idle and its body is ready.
func (b *Browser) WaitIdle(ctx context.Context) error {
	if err := b.idle.wait(ctx); err != nil {
		return err
	}
	return b.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (b *Browser) Locate(ctx context.Context, sel automation.Selector) error {
	if err := b.run(ctx, chromedp.WaitVisible(sel.Expr, by(sel))); err != nil {
		return fmt.Errorf("%w: %s: %w", automation.ErrNotFound, sel, err)
	}
	return nil
}

func (b *Browser) Click(ctx context.Context, sel automation.Selector) error {
	return b.run(ctx, chromedp.Click(sel.Expr, by(sel), chromedp.NodeVisible))
}

func (b *Browser) Fill(ctx context.Context, sel automation.Selector, text string) error {
	return b.run(ctx,
		chromedp.Click(sel.Expr, by(sel), chromedp.NodeVisible),
		chromedp.SetValue(sel.Expr, "", by(sel)),
		chromedp.SendKeys(sel.Expr, text, by(sel)),
	)
}

func (b *Browser) Eval(ctx context.Context, script string) (bool, error) {
	var ok bool
	if err := b.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := b.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.tabCancel()
	b.allocCancel()
	return err
}
