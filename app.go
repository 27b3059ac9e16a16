package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObiAU/techpulse/internal/aggregator"
	"github.com/ObiAU/techpulse/internal/ai"
	"github.com/ObiAU/techpulse/internal/cache"
	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/metrics"
	"github.com/ObiAU/techpulse/internal/processor"
	"github.com/ObiAU/techpulse/internal/sources"
	"github.com/ObiAU/techpulse/internal/storage"
	"github.com/ObiAU/techpulse/internal/telegram"
)

type app struct {
	log        *logger.Logger
	aggregator *aggregator.Aggregator
	bot        *telegram.Bot
	cache      cache.Store
	store      storage.RecordStore
}

func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}

	a := &app{log: log}

	a.cache, err = cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	oracle, err := ai.New(ctx, cfg, a.cache, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	recorder := metrics.New(nil)
	proc := processor.New(oracle, log, processor.WithObserver(recorder))

	client := httpclient.New(
		httpclient.WithTimeout(cfg.Sources.HTTPTimeout),
		httpclient.WithUserAgent(cfg.Sources.UserAgent),
	)
	a.store, err = storage.New(ctx, cfg, client)
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			a.Close()
			return nil, fmt.Errorf("open record store: %w", err)
		}
		log.Warn("record store disabled, pulses are only written locally", logger.Error(err))
	}

	deps := aggregator.Deps{
		Jobs:      sources.DefaultJobs(cfg, log),
		Processor: proc,
		Local:     storage.NewLocalStore(cfg.Output.Dir),
		Remote:    a.store,
		Metrics:   recorder,
		Cache:     a.cache,
		Log:       log,
	}

	if cfg.TelegramEnabled() {
		a.bot, err = telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn("telegram disabled", logger.Error(err))
		} else {
			deps.Notifier = a.bot
		}
	}

	a.aggregator = aggregator.New(cfg, deps)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing record store", logger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("closing cache", logger.Error(err))
		}
	}
}
