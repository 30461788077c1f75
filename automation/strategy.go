package automation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Strategy is one way of putting a value into a form field. Strategies of a
// field are tried in order until one succeeds.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, b Browser, value string) error
}

// RadioByValue clicks the radio input whose value attribute equals the value.
type RadioByValue struct{}

func (RadioByValue) Name() string { return "radio_by_value" }

func (RadioByValue) Apply(ctx context.Context, b Browser, value string) error {
	sel := XPath(fmt.Sprintf(`//input[@type="radio"][@value=%s]`, xpathLiteral(value)))
	return locateAndClick(ctx, b, sel)
}

// RadioByLabel clicks the label whose text is the value.
type RadioByLabel struct{}

func (RadioByLabel) Name() string { return "radio_by_label" }

func (RadioByLabel) Apply(ctx context.Context, b Browser, value string) error {
	sel := XPath(fmt.Sprintf(`//label[normalize-space(.)=%s]`, xpathLiteral(value)))
	return locateAndClick(ctx, b, sel)
}

type ScriptRadio struct{}

func (ScriptRadio) Name() string { return "script_radio" }

func (ScriptRadio) Apply(ctx context.Context, b Browser, value string) error {
	script, err := invoke(checkRadioJS, map[string]any{"value": value})
	if err != nil {
		return err
	}
	return evalTrue(ctx, b, script)
}

// InputByHints finds a text input by its type or by words in its
// placeholder or aria-label.
type InputByHints struct {
	Types []string
	Hints []string
}

func (InputByHints) Name() string { return "input_by_hints" }

func (s InputByHints) Apply(ctx context.Context, b Browser, value string) error {
	var preds []string
	for _, t := range s.Types {
		preds = append(preds, fmt.Sprintf("@type=%s", xpathLiteral(t)))
	}
	for _, h := range s.Hints {
		preds = append(preds, xpathContainsFold("@placeholder", h), xpathContainsFold("@aria-label", h))
	}
	if len(preds) == 0 {
		return fmt.Errorf("%w: no hints", ErrNotFound)
	}
	sel := XPath(fmt.Sprintf("//input[%s]", strings.Join(preds, " or ")))
	if err := b.Locate(ctx, sel); err != nil {
		return err
	}
	return b.Fill(ctx, sel, value)
}

// InputByLabel fills the first input following a label containing Label.
type InputByLabel struct {
	Label string
}

func (InputByLabel) Name() string { return "input_by_label" }

func (s InputByLabel) Apply(ctx context.Context, b Browser, value string) error {
	sel := XPath(fmt.Sprintf("//label[%s]/following::input[1]", xpathContainsFold(".", s.Label)))
	if err := b.Locate(ctx, sel); err != nil {
		return err
	}
	return b.Fill(ctx, sel, value)
}

// ScriptInput assigns the value directly and dispatches input and change events.
type ScriptInput struct {
	Types []string
	Hints []string
}

func (ScriptInput) Name() string { return "script_input" }

func (s ScriptInput) Apply(ctx context.Context, b Browser, value string) error {
	script, err := invoke(setInputJS, map[string]any{
		"types": nonNil(s.Types),
		"hints": lowerAll(s.Hints),
		"value": value,
	})
	if err != nil {
		return err
	}
	return evalTrue(ctx, b, script)
}

// DropdownByLabel drives a select2 widget: it opens the container that
// follows the label and clicks the option containing the value.
type DropdownByLabel struct {
	Label     string
	OpenDelay time.Duration
}

func (DropdownByLabel) Name() string { return "dropdown_by_label" }

func (s DropdownByLabel) Apply(ctx context.Context, b Browser, value string) error {
	container := XPath(fmt.Sprintf(`//label[%s]/following::*[contains(@class, "select2-container")][1]`,
		xpathContainsFold(".", s.Label)))
	if err := locateAndClick(ctx, b, container); err != nil {
		return fmt.Errorf("open dropdown: %w", err)
	}
	if err := sleep(ctx, s.OpenDelay); err != nil {
		return err
	}
	option := XPath(fmt.Sprintf(`//li[contains(@class, "select2-results__option") and %s]`,
		xpathContainsFold(".", value)))
	if err := locateAndClick(ctx, b, option); err != nil {
		return fmt.Errorf("pick option: %w", err)
	}
	return nil
}

// ScriptDropdown sets the underlying select element and notifies select2.
type ScriptDropdown struct {
	Label string
}

func (ScriptDropdown) Name() string { return "script_dropdown" }

func (s ScriptDropdown) Apply(ctx context.Context, b Browser, value string) error {
	script, err := invoke(selectOptionJS, map[string]any{
		"label": strings.ToLower(s.Label),
		"value": value,
	})
	if err != nil {
		return err
	}
	return evalTrue(ctx, b, script)
}

func locateAndClick(ctx context.Context, b Browser, sel Selector) error {
	if err := b.Locate(ctx, sel); err != nil {
		return err
	}
	return b.Click(ctx, sel)
}

func evalTrue(ctx context.Context, b Browser, script string) error {
	ok, err := b.Eval(ctx, script)
	if err != nil {
		return fmt.Errorf("script failed: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
