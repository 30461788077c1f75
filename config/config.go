package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbxark/enquirybot/automation"
)

type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Form    FormConfig    `yaml:"form"`
	Session SessionConfig `yaml:"session"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type LLMConfig struct {
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"`

	// FallbackAnswer is sent when the model cannot answer a question.
	// Empty sends the generic apology instead.
	FallbackAnswer string `yaml:"fallback_answer"`

	// CommandParser lets the model classify replies at confirmation that
	// match no keyword.
	CommandParser bool `yaml:"command_parser"`
}

type FormConfig struct {
	URL               string        `yaml:"url"`
	Headless          bool          `yaml:"headless"`
	ChromePath        string        `yaml:"chrome_path"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	FormTimeout       time.Duration `yaml:"form_timeout"`
	FieldTimeout      time.Duration `yaml:"field_timeout"`
	FillTimeout       time.Duration `yaml:"fill_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	HoldOpen          time.Duration `yaml:"hold_open"`

	// LaunchInterval and LaunchBurst rate limit browser launches.
	LaunchInterval time.Duration `yaml:"launch_interval"`
	LaunchBurst    int           `yaml:"launch_burst"`
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type SessionConfig struct {
	Backend         string        `yaml:"backend"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	TTL             time.Duration `yaml:"ttl"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	TranscriptLimit int           `yaml:"transcript_limit"`
}

type AuditConfig struct {
	// DSN of the SQLite audit database. Empty disables auditing.
	DSN string `yaml:"dsn"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	form := automation.DefaultConfig()
	return &Config{
		LLM: LLMConfig{
			Model:          "gpt-4o",
			Temperature:    0.7,
			FallbackAnswer: "I'm not able to look that up right now. Our mortgage specialists can help at +65 6363 3333.",
		},
		Form: FormConfig{
			URL:               form.FormURL,
			Headless:          true,
			ScreenshotDir:     form.ScreenshotDir,
			NavigationTimeout: form.NavigationTimeout,
			FormTimeout:       form.FormTimeout,
			FieldTimeout:      form.FieldTimeout,
			FillTimeout:       form.FillTimeout,
			SettleDelay:       form.SettleDelay,
			HoldOpen:          form.HoldOpen,
			LaunchInterval:    time.Second,
			LaunchBurst:       2,
		},
		Session: SessionConfig{
			Backend:         SessionBackendMemory,
			TTL:             24 * time.Hour,
			IdleTimeout:     15 * time.Minute,
			TranscriptLimit: 100,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML (or JSON) config file over the defaults. OPENAI_API_KEY
// overrides the configured key.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(file, conf); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		conf.LLM.APIKey = key
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required"))
	}
	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level: %w", err)
	}
	return level, nil
}

// Automation maps the form section onto the engine configuration.
func (f FormConfig) Automation() automation.Config {
	cfg := automation.DefaultConfig()
	cfg.FormURL = f.URL
	cfg.ScreenshotDir = f.ScreenshotDir
	cfg.NavigationTimeout = f.NavigationTimeout
	cfg.FormTimeout = f.FormTimeout
	cfg.FieldTimeout = f.FieldTimeout
	cfg.FillTimeout = f.FillTimeout
	cfg.SettleDelay = f.SettleDelay
	cfg.HoldOpen = f.HoldOpen
	return cfg
}
