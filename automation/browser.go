package automation

import (
	"context"
	"fmt"
	"strings"
)

type SelectorKind int

const (
	ByXPath SelectorKind = iota
	ByCSS
)

// Selector addresses elements on the target page.
type Selector struct {
	Kind SelectorKind
	Expr string
}

func XPath(expr string) Selector {
	return Selector{Kind: ByXPath, Expr: expr}
}

func CSS(expr string) Selector {
	return Selector{Kind: ByCSS, Expr: expr}
}

func (s Selector) String() string {
	if s.Kind == ByCSS {
		return "css=" + s.Expr
	}
	return "xpath=" + s.Expr
}

// Browser is an isolated page session on the target site. Every method
// must honour ctx; the engine bounds each call with its own timeout.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// WaitIdle blocks until network activity settles and the DOM is ready.
	WaitIdle(ctx context.Context) error
	// Locate blocks until sel matches a visible element.
	Locate(ctx context.Context, sel Selector) error
	Click(ctx context.Context, sel Selector) error
	// Fill clears the element matched by sel and types text into it.
	Fill(ctx context.Context, sel Selector, text string) error
	// Eval runs a script that reports whether it acted on the page.
	Eval(ctx context.Context, script string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

type LauncherFunc func(ctx context.Context) (Browser, error)

func (f LauncherFunc) Launch(ctx context.Context) (Browser, error) {
	return f(ctx)
}

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// xpathLower lowercases an XPath 1.0 expression.
func xpathLower(expr string) string {
	return fmt.Sprintf("translate(%s, '%s', '%s')", expr, upperAlpha, lowerAlpha)
}

// xpathLiteral quotes s as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, `'`):
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if part != "" {
			quoted = append(quoted, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// xpathContainsFold matches expr containing needle, ignoring ASCII case.
func xpathContainsFold(expr, needle string) string {
	return fmt.Sprintf("contains(%s, %s)", xpathLower(expr), xpathLiteral(strings.ToLower(needle)))
}
