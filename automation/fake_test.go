package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeBrowser treats every selector and script as matching unless it
// mentions one of the denied substrings.
type fakeBrowser struct {
	mu sync.Mutex

	deny        []string
	navigateErr error
	urlErr      error
	shotErr     error
	panicOn     string
	url         string

	clicks  []string
	fills   map[string]string
	scripts []string
	closed  int
}

func newFakeBrowser(deny ...string) *fakeBrowser {
	return &fakeBrowser{
		deny:  deny,
		url:   "https://example.test/form?prefilled=1",
		fills: map[string]string{},
	}
}

func (f *fakeBrowser) denied(s string) bool {
	s = strings.ToLower(s)
	for _, d := range f.deny {
		if strings.Contains(s, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	return f.navigateErr
}

func (f *fakeBrowser) WaitIdle(ctx context.Context) error {
	return nil
}

func (f *fakeBrowser) Locate(ctx context.Context, sel Selector) error {
	if f.panicOn != "" && strings.Contains(sel.Expr, f.panicOn) {
		panic("boom")
	}
	if f.denied(sel.Expr) {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return ctx.Err()
}

func (f *fakeBrowser) Click(ctx context.Context, sel Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, sel.Expr)
	return nil
}

func (f *fakeBrowser) Fill(ctx context.Context, sel Selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fills[sel.Expr] = text
	return nil
}

func (f *fakeBrowser) Eval(ctx context.Context, script string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, script)
	return !f.denied(script), nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return []byte("png"), nil
}

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	return f.url, f.urlErr
}

func (f *fakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeBrowser) filledValues() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var values []string
	for _, v := range f.fills {
		values = append(values, v)
	}
	return values
}
