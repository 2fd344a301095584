package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/api"
	"github.com/lucklab/fortuned/internal/app/fortune"
	"github.com/lucklab/fortuned/internal/app/generator"
	"github.com/lucklab/fortuned/internal/app/tier"
	"github.com/lucklab/fortuned/internal/infra/llm"
	"github.com/lucklab/fortuned/internal/infra/store"
	"github.com/lucklab/fortuned/internal/logging"
	"github.com/lucklab/fortuned/internal/render"
)

// Daemon is the fortuned runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Log      zerolog.Logger
	Store    *store.Store
	Service  *fortune.Service
	Messages *render.Messages
	Server   *api.Server
	cancel   context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	log := logging.New(cfg.Logging.Level)

	st, err := store.Open(cfg.Bot.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	gen := generator.New(cfg.Generator, log)
	table := tier.Build(cfg.Tiers, log)
	enricher := llm.New(cfg.LLM, log)

	svc := fortune.New(st, gen, table, enricher, fortune.Options{
		CacheDays:       cfg.Retention.CacheDays,
		HistoryKeepDays: cfg.Retention.HistoryDays,
		WindowDays:      cfg.History.WindowDays,
		Medals:          cfg.Rank.Medals,
	}, log)

	msgs := render.NewMessages(cfg.Templates)

	srv := api.NewServer(svc, msgs, api.Config{
		Enabled:             cfg.Bot.Enabled,
		ShowCached:          cfg.Bot.ShowCached,
		RankDisplayLimit:    cfg.Rank.DisplayLimit,
		HistoryDisplayLimit: cfg.History.DisplayLimit,
	}, log)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Service:  svc,
		Messages: msgs,
		Server:   srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // enrichment can be slow
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	d.Log.Info().Str("addr", addr).Str("algorithm", d.Config.Generator.Algorithm).
		Msg("fortuned serving")
	fmt.Printf("fortuned serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down the daemon.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
}
