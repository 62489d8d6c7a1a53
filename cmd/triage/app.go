package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/config"
	"github.com/counselhq/triage/internal/similarity"
	"github.com/counselhq/triage/internal/storage"
	"github.com/counselhq/triage/internal/storage/sqlite"
	"github.com/counselhq/triage/internal/triageai"
)

// app bundles the wired components a command needs. Commands call initApp,
// use what they need, and defer close.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      storage.Storage
	gateway    *ai.Gateway
	retryer    *ai.Retryer
	limiter    *ai.IntervalLimiter
	cache      *similarity.Cache
	service    *similarity.Service
	sweep      *similarity.Sweep
	classifier *triageai.Classifier

	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// initApp loads config and wires storage. AI components are only built when
// withAI is true so storage-only commands work without an API key.
func initApp(withAI bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanup, err := config.SetupLogger(cfg.LogFile, config.ParseLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, cleanup)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	a.cache = similarity.NewCache(store, logger)

	if !withAI {
		return a, nil
	}

	provider, err := ai.NewAnthropicProvider(ai.AnthropicConfig{
		RequestTimeout: cfg.RequestTimeout(),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	a.gateway = ai.NewGateway(provider, ai.DefaultModels(), logger)

	retryOpts := ai.DefaultRetryOptions()
	retryOpts.MaxAttempts = cfg.MaxAttempts
	retryOpts.InitialDelay = time.Duration(cfg.InitialDelayMs) * time.Millisecond
	retryOpts.MaxDelay = time.Duration(cfg.MaxDelayMs) * time.Millisecond
	a.retryer = ai.NewRetryer(retryOpts, logger)

	a.limiter = ai.NewIntervalLimiter(cfg.CallsPerMinute)
	a.classifier = triageai.NewClassifier(a.gateway, a.retryer, logger)

	simCfg := similarity.Config{
		BatchCap:            cfg.BatchCap,
		ActiveThreshold:     cfg.ActiveThreshold,
		HistoricalThreshold: cfg.HistoricalThreshold,
		ActiveTTL:           cfg.ActiveTTL(),
		HistoricalTTL:       cfg.HistoricalTTL(),
		MaxCandidates:       cfg.MaxCandidates,
	}
	comparator := similarity.NewComparator(a.gateway, a.retryer, ai.TierBalanced, cfg.BatchCap, logger)

	a.service, err = similarity.NewService(store, a.cache, comparator, a.limiter, simCfg, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create similarity service: %w", err)
	}

	a.sweep, err = similarity.NewSweep(store, a.cache, comparator, a.limiter, simCfg, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create sweep: %w", err)
	}

	return a, nil
}
