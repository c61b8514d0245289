package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arooba/pricing-engine/internal/engine"
	"github.com/arooba/pricing-engine/internal/settings"
	"github.com/arooba/pricing-engine/pkg/config"
	"github.com/arooba/pricing-engine/pkg/logger"
	"github.com/arooba/pricing-engine/pkg/metrics"
	"github.com/arooba/pricing-engine/pkg/redis"
)

const serviceName = "pricing-audit"

func main() {
	// stdout carries results, so logs go to stderr
	logg := logger.New(logger.Options{ServiceName: serviceName, Output: os.Stderr})

	_ = godotenv.Load()

	input := flag.String("in", "-", "request file, one JSON document per request (- for stdin)")
	printSettings := flag.Bool("print-settings", false, "print the effective settings snapshot and exit")
	noOverrides := flag.Bool("no-overrides", false, "ignore admin overrides stored in redis")
	refresh := flag.Bool("refresh", false, "re-read admin overrides every AROOBA_SETTINGS_REFRESH_INTERVAL during the run")
	setField := flag.String("set-override", "", "validate and store an admin override, e.g. vat_rate=0.14")
	clearField := flag.String("clear-override", "", "remove an admin override field")
	overrideFile := flag.String("override-file", "", `validate and store every field of a {"fields": {...}} JSON document`)
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runID := uuid.NewString()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"run_id": runID,
	})

	var overrides settings.OverrideSource
	var redisClient *redis.Client
	if cfg.Redis.Enabled() && !*noOverrides {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		overrides = settings.NewRedisSource(redisClient, redisClient.OverridesKey(cfg.Redis.OverridesKey))
	}

	if *setField != "" || *clearField != "" || *overrideFile != "" {
		if redisClient == nil {
			fmt.Fprintln(os.Stderr, "admin overrides need AROOBA_REDIS_URL or AROOBA_REDIS_ADDR")
			os.Exit(1)
		}
		key := redisClient.OverridesKey(cfg.Redis.OverridesKey)
		if *setField != "" {
			base, err := settings.NewLoader(cfg, nil, logg).Load(ctx)
			requireResource(ctx, logg, "base settings", err)
			requireResource(ctx, logg, "set override", setOverride(ctx, redisClient, key, base, *setField))
			logg.Info(logg.WithField(ctx, "assignment", *setField), "pricing override stored")
		}
		if *overrideFile != "" {
			base, err := settings.NewLoader(cfg, nil, logg).Load(ctx)
			requireResource(ctx, logg, "base settings", err)
			in, closeFile, err := openInput(*overrideFile)
			requireResource(ctx, logg, "override file", err)
			n, err := setOverridesFromFile(ctx, redisClient, key, base, in)
			closeFile()
			requireResource(ctx, logg, "set overrides", err)
			logg.Info(logg.WithFields(ctx, map[string]any{"file": *overrideFile, "fields": n}), "pricing overrides stored")
		}
		if *clearField != "" {
			requireResource(ctx, logg, "clear override", clearOverride(ctx, redisClient, key, *clearField))
			logg.Info(logg.WithField(ctx, "field", *clearField), "pricing override cleared")
		}
		return
	}

	loader := settings.NewLoader(cfg, overrides, logg)
	snapshot, err := loader.Load(ctx)
	requireResource(ctx, logg, "settings", err)

	if *printSettings {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		requireResource(ctx, logg, "print settings", enc.Encode(snapshot))
		return
	}

	params := engine.ServiceParams{
		Logger:   logg,
		Settings: snapshot,
		Loader:   loader,
		Metrics:  metrics.NewCalculationMetrics(prometheus.DefaultRegisterer),
	}
	if *refresh {
		params.RefreshInterval = cfg.Redis.RefreshInterval
	}
	service, err := engine.NewService(params)
	requireResource(ctx, logg, "engine", err)
	go func() {
		if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "settings refresh stopped", err)
		}
	}()

	in, closeInput, err := openInput(*input)
	requireResource(ctx, logg, "input", err)
	defer closeInput()

	a := &auditor{engine: service, logg: logg, runID: runID}
	summary, err := a.run(ctx, in, os.Stdout)
	ctx = logg.WithFields(ctx, map[string]any{
		"processed": summary.Processed,
		"failed":    summary.Failed,
	})
	if err != nil {
		logg.Error(ctx, "audit run aborted", err)
		os.Exit(1)
	}
	logg.Info(ctx, "audit run complete")
	if summary.Failed > 0 {
		os.Exit(2)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("%s failed", step), err)
	os.Exit(1)
}
