package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tbxark/enquirybot/metrics"
	"github.com/tbxark/enquirybot/types"
)

const DefaultFormURL = "https://www.ocbc.com/personal-banking/forms/overseas-property-loan-enquiry"

type Config struct {
	FormURL      string
	FormSelector string

	NavigationTimeout time.Duration
	IdleTimeout       time.Duration
	FormTimeout       time.Duration
	FieldTimeout      time.Duration
	FillTimeout       time.Duration

	// Delays are optional; zero disables them.
	SettleDelay       time.Duration
	StepDelay         time.Duration
	DropdownOpenDelay time.Duration
	HoldOpen          time.Duration

	// ScreenshotDir receives the verification screenshot. Empty disables it.
	ScreenshotDir string
	Plans         []FieldPlan
}

func DefaultConfig() Config {
	return Config{
		FormURL:           DefaultFormURL,
		FormSelector:      "form",
		NavigationTimeout: 30 * time.Second,
		IdleTimeout:       15 * time.Second,
		FormTimeout:       10 * time.Second,
		FieldTimeout:      5 * time.Second,
		FillTimeout:       2 * time.Minute,
		SettleDelay:       5 * time.Second,
		StepDelay:         time.Second,
		DropdownOpenDelay: time.Second,
		HoldOpen:          10 * time.Second,
		ScreenshotDir:     "form_screenshots",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FormURL == "" {
		c.FormURL = def.FormURL
	}
	if c.FormSelector == "" {
		c.FormSelector = def.FormSelector
	}
	for _, pair := range []struct{ value, fallback *time.Duration }{
		{&c.NavigationTimeout, &def.NavigationTimeout},
		{&c.IdleTimeout, &def.IdleTimeout},
		{&c.FormTimeout, &def.FormTimeout},
		{&c.FieldTimeout, &def.FieldTimeout},
		{&c.FillTimeout, &def.FillTimeout},
	} {
		if *pair.value <= 0 {
			*pair.value = *pair.fallback
		}
	}
	if c.Plans == nil {
		c.Plans = DefaultPlans(c.DropdownOpenDelay)
	}
	return c
}

// FieldOutcome reports how one field was filled.
type FieldOutcome struct {
	Field    Field
	Strategy string
	Err      error
}

func (o FieldOutcome) OK() bool {
	return o.Err == nil
}

// Result is the outcome of one fill. A successful fill carries the URL of
// the pre-filled page; a failed one carries Err.
type Result struct {
	ID         string
	URL        string
	Screenshot string
	Fields     []FieldOutcome
	Log        *InteractionLog
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Result) OK() bool {
	return r != nil && r.Err == nil && r.URL != ""
}

// Outcome is "ok", "partial" when some fields were skipped, or "failed".
func (r *Result) Outcome() string {
	if !r.OK() {
		return OutcomeFailed
	}
	if len(r.FailedFields()) > 0 {
		return "partial"
	}
	return OutcomeOK
}

func (r *Result) FailedFields() []Field {
	if r == nil {
		return nil
	}
	var failed []Field
	for _, f := range r.Fields {
		if !f.OK() {
			failed = append(failed, f.Field)
		}
	}
	return failed
}

type Engine struct {
	launcher Launcher
	cfg      Config
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	now      func() time.Time
}

type EngineOption func(*Engine)

// WithLimiter bounds how often browsers are launched.
func WithLimiter(limiter *rate.Limiter) EngineOption {
	return func(e *Engine) {
		e.limiter = limiter
	}
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(launcher Launcher, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		launcher: launcher,
		cfg:      cfg.withDefaults(),
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fill opens the enquiry form in a fresh browser and fills it from rec.
// It never submits the form. The returned result is never nil.
func (e *Engine) Fill(ctx context.Context, rec types.Record) (res *Result) {
	res = &Result{
		ID:        uuid.NewString(),
		Log:       NewInteractionLog(),
		StartedAt: e.now(),
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Form fill panicked", "id", res.ID, "panic", r)
			res.URL = ""
			res.Err = &FaultError{Value: r}
		}
		res.FinishedAt = e.now()
		e.metrics.ObserveFill(res.Outcome(), res.FinishedAt.Sub(res.StartedAt))
		slog.Info("Form fill finished", "id", res.ID, "outcome", res.Outcome(), "url", res.URL, "error", res.Err)
	}()

	if missing := rec.Missing(); len(missing) > 0 {
		res.Err = fmt.Errorf("%w: %s missing", ErrIncompleteRecord, missing[0].DisplayName)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.FillTimeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		res.Err = fmt.Errorf("failed to acquire browser slot: %w", err)
		return res
	}
	slog.Info("Launching browser", "id", res.ID)
	browser, err := e.launcher.Launch(ctx)
	if err != nil {
		res.Log.Record("launch", "", err)
		res.Err = fmt.Errorf("failed to launch browser: %w", err)
		return res
	}
	defer func() {
		err := browser.Close()
		res.Log.Record("close", "", err)
		if err != nil {
			slog.Warn("Failed to close browser", "id", res.ID, "error", err)
		}
	}()

	res.URL, res.Err = e.run(ctx, browser, rec, res)
	return res
}

func (e *Engine) run(ctx context.Context, b Browser, rec types.Record, res *Result) (string, error) {
	slog.Info("Navigating to form", "id", res.ID, "url", e.cfg.FormURL)
	err := bounded(ctx, e.cfg.NavigationTimeout, func(ctx context.Context) error {
		return b.Navigate(ctx, e.cfg.FormURL)
	})
	res.Log.Record("navigate", e.cfg.FormURL, err)
	if err != nil {
		return "", &NavigationError{URL: e.cfg.FormURL, Err: err}
	}

	err = bounded(ctx, e.cfg.IdleTimeout, b.WaitIdle)
	res.Log.Record("wait_idle", "", err)
	if err != nil {
		slog.Warn("Page did not settle, continuing", "id", res.ID, "error", err)
	}
	if err := sleep(ctx, e.cfg.SettleDelay); err != nil {
		return "", err
	}

	form := CSS(e.cfg.FormSelector)
	err = bounded(ctx, e.cfg.FormTimeout, func(ctx context.Context) error {
		return b.Locate(ctx, form)
	})
	res.Log.Record("locate", form.String(), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormNotReady, err)
	}

	e.scrollToMiddle(ctx, b, res)
	for _, plan := range e.cfg.Plans {
		res.Fields = append(res.Fields, e.fillField(ctx, b, plan, plan.Field.Value(rec), res.Log))
		if err := sleep(ctx, e.cfg.StepDelay); err != nil {
			return "", err
		}
	}

	res.Screenshot = e.saveScreenshot(ctx, b, res)

	var url string
	err = bounded(ctx, e.cfg.NavigationTimeout, func(ctx context.Context) error {
		var err error
		url, err = b.CurrentURL(ctx)
		return err
	})
	res.Log.Record("current_url", url, err)
	if err != nil {
		return "", &NavigationError{URL: e.cfg.FormURL, Err: err}
	}

	if err := sleep(ctx, e.cfg.HoldOpen); err != nil {
		slog.Debug("Hold open interrupted", "id", res.ID, "error", err)
	}
	return url, nil
}

func (e *Engine) fillField(ctx context.Context, b Browser, plan FieldPlan, value string, log *InteractionLog) FieldOutcome {
	var errs []error
	for _, strategy := range plan.Strategies {
		err := bounded(ctx, e.cfg.FieldTimeout, func(ctx context.Context) error {
			return strategy.Apply(ctx, b, value)
		})
		log.Record(strategy.Name(), string(plan.Field), err)
		if err == nil {
			e.metrics.ObserveField(string(plan.Field), strategy.Name(), OutcomeOK)
			slog.Info("Filled field", "field", plan.Field, "strategy", strategy.Name())
			return FieldOutcome{Field: plan.Field, Strategy: strategy.Name()}
		}
		e.metrics.ObserveField(string(plan.Field), strategy.Name(), OutcomeFailed)
		slog.Debug("Strategy failed", "field", plan.Field, "strategy", strategy.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
	}
	if len(errs) == 0 {
		errs = append(errs, ErrNotFound)
	}
	fillErr := &FieldFillError{Field: string(plan.Field), Err: errors.Join(errs...)}
	e.metrics.ObserveField(string(plan.Field), "", OutcomeSkipped)
	slog.Error("Failed to fill field, skipping", "field", plan.Field, "error", fillErr)
	return FieldOutcome{Field: plan.Field, Err: fillErr}
}

func (e *Engine) scrollToMiddle(ctx context.Context, b Browser, res *Result) {
	err := bounded(ctx, e.cfg.FieldTimeout, func(ctx context.Context) error {
		ok, err := b.Eval(ctx, scrollMiddleJS)
		if err == nil && !ok {
			err = ErrNotFound
		}
		return err
	})
	res.Log.Record("scroll", "", err)
	if err != nil {
		slog.Debug("Failed to scroll form, continuing", "id", res.ID, "error", err)
	}
}

func (e *Engine) saveScreenshot(ctx context.Context, b Browser, res *Result) string {
	if e.cfg.ScreenshotDir == "" {
		return ""
	}
	var data []byte
	err := bounded(ctx, e.cfg.FormTimeout, func(ctx context.Context) error {
		var err error
		data, err = b.Screenshot(ctx)
		return err
	})
	var path string
	if err == nil {
		path = filepath.Join(e.cfg.ScreenshotDir, fmt.Sprintf("form_filled_%d_%s.png", e.now().Unix(), res.ID))
		err = writeArtifact(path, data)
	}
	res.Log.Record("screenshot", path, err)
	if err != nil {
		slog.Warn("Failed to save screenshot", "id", res.ID, "error", err)
		return ""
	}
	slog.Info("Screenshot saved", "id", res.ID, "path", path)
	return path
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func bounded(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
