package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tbxark/enquirybot"
	"github.com/tbxark/enquirybot/agent"
	"github.com/tbxark/enquirybot/audit"
	"github.com/tbxark/enquirybot/automation"
	"github.com/tbxark/enquirybot/automation/cdp"
	"github.com/tbxark/enquirybot/command"
	"github.com/tbxark/enquirybot/config"
	"github.com/tbxark/enquirybot/metrics"
	"github.com/tbxark/enquirybot/responder"
)

func main() {
	conf := flag.String("config", "config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address, overrides metrics.addr")
	flag.Parse()
	cfg, err := config.Load(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := startApp(ctx, cfg); err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, cfg *config.Config) error {
	level, _ := cfg.Log.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}
	respOpts := []responder.Option{responder.WithTemperature(cfg.LLM.Temperature)}
	if cfg.LLM.SystemPrompt != "" {
		respOpts = append(respOpts, responder.WithSystemPrompt(cfg.LLM.SystemPrompt))
	}
	var resp responder.Responder = responder.NewChatResponder(cm, respOpts...)
	if cfg.LLM.FallbackAnswer != "" {
		resp = responder.NewFailbackResponder(resp, responder.StaticResponder{Answer: cfg.LLM.FallbackAnswer})
	}

	launcher := cdp.NewLauncher(cfg.Form.Headless)
	launcher.ExecPath = cfg.Form.ChromePath
	engine := automation.NewEngine(launcher, cfg.Form.Automation(),
		automation.WithLimiter(rate.NewLimiter(rate.Every(cfg.Form.LaunchInterval), cfg.Form.LaunchBurst)),
		automation.WithMetrics(m),
	)

	sessions, transcript, closeSessions, err := openSessions(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeSessions()

	var (
		filler  agent.Filler = engine
		history fillHistory
	)
	if cfg.Audit.DSN != "" {
		store, err := audit.Open(ctx, cfg.Audit.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		filler = audit.NewRecordingFiller(engine, store, transcript)
		history = store
	}

	flowOpts := []agent.FlowOption{
		agent.WithTranscript(transcript),
		agent.WithFlowMetrics(m),
		agent.WithIdleTimeout(cfg.Session.IdleTimeout),
	}
	if cfg.LLM.CommandParser {
		toolParser, err := command.NewToolCommandParser(cm)
		if err != nil {
			return fmt.Errorf("failed to create command parser: %w", err)
		}
		flowOpts = append(flowOpts, agent.WithCommandParser(
			command.NewFailbackCommandParser(command.NewLocalCommandParser(), toolParser),
		))
	}
	flow := agent.NewFlow(sessions, resp, filler, flowOpts...)

	return runConsole(ctx, enquirybot.New(flow), history, os.Stdin, os.Stdout)
}

func openSessions(ctx context.Context, cfg config.SessionConfig) (agent.StateReadWriter, agent.Transcript, func(), error) {
	if cfg.Backend != config.SessionBackendRedis {
		sessions := agent.NewMemorySessionStore(cfg.TTL)
		transcript := agent.NewTranscriptStore(agent.NewMemoryCache[[]*schema.Message](cfg.TTL), cfg.TranscriptLimit)
		return sessions, transcript, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	sessions := agent.NewSessionStore(agent.NewRedisCache[*agent.Session](client, cfg.TTL))
	transcript := agent.NewTranscriptStore(agent.NewRedisCache[[]*schema.Message](client, cfg.TTL), cfg.TranscriptLimit)
	return sessions, transcript, func() { _ = client.Close() }, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", addr)
	return srv
}
