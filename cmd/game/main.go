package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pefman/void-duel/internal/config"
	"github.com/pefman/void-duel/internal/logging"
	"github.com/pefman/void-duel/internal/scenario"
	"github.com/pefman/void-duel/internal/server"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/telemetry"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	configDir := flag.String("config", ".", "directory holding void-duel.yaml")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	settings, err := config.Current()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(settings.Log.Level, settings.Log.Format, os.Stdout)
	if f := config.ConfigFile(); f != "" {
		log.Info().Str("file", f).Msg("config loaded")
	}

	rec, err := stats.Open(settings.Stats.Driver, settings.Stats.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", settings.Stats.Driver).Msg("failed to open stats ledger")
	}
	defer rec.Close()

	var sc *scenario.Scenario
	if settings.Match.Scenario != "" {
		loaded, err := scenario.Load(settings.Match.Scenario)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load scenario")
		}
		sc = &loaded
	}

	mcfg := telemetry.Config{
		Enabled:     settings.Metrics.Enabled,
		ServiceName: settings.Metrics.ServiceName,
		Interval:    settings.Metrics.Interval,
		Endpoint:    settings.Metrics.Endpoint,
		Insecure:    settings.Metrics.Insecure,
	}
	if settings.Metrics.Stdout {
		mcfg.Writer = os.Stdout
	}
	provider, err := telemetry.NewProvider(context.Background(), mcfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up metrics provider")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("metrics shutdown")
		}
	}()
	if settings.Metrics.Enabled {
		log.Info().Dur("interval", settings.Metrics.Interval).Str("endpoint", settings.Metrics.Endpoint).Msg("metrics enabled")
	}
	metrics, err := telemetry.New(provider.Meter())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up metrics")
	}

	srv := server.New(server.Options{
		Logger:         log,
		Recorder:       rec,
		Metrics:        metrics,
		Scenario:       sc,
		Seed:           settings.Match.Seed,
		IdleTimeout:    settings.Match.IdleTimeout,
		AllowedOrigins: settings.Server.AllowedOrigins,
		Version:        buildVersion,
		BuildTime:      buildTime,
	})

	// PORT wins over config so hosting platforms can assign one.
	port := settings.Server.Port
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		port = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port)); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("shutdown complete")
}
