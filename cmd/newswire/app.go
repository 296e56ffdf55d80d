package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/cache"
	"github.com/robertmeta/newswire/config"
	"github.com/robertmeta/newswire/extract"
	"github.com/robertmeta/newswire/feed"
	"github.com/robertmeta/newswire/registry"
	"github.com/robertmeta/newswire/rewrite"
	"github.com/robertmeta/newswire/store"
	"github.com/urfave/cli/v2"
)

// app holds the components shared by the commands. Fields stay nil until
// the matching open call succeeds.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	reg    *registry.Registry

	store *store.Store
	cache *cache.Redis
}

func newApp(c *cli.Context) (*app, error) {
	cfg, err := config.FromCLI(c)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, reg: reg}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	if a.cfg.DBDriver == store.DriverSQLite || a.cfg.DBDriver == "sqlite3" {
		// Create directory if it doesn't exist
		dir := filepath.Dir(a.cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	s, err := store.New(a.cfg.DBDriver, a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = s
	return s, nil
}

func (a *app) fetcher() *feed.Fetcher {
	return feed.NewFetcher(
		feed.WithTimeout(a.cfg.FetchTimeout),
		feed.WithLocation(a.cfg.Location),
		feed.WithLogger(a.logger),
	)
}

// aggregator wires the fetcher and, when configured, the Redis cache.
func (a *app) aggregator(ctx context.Context, cached bool) *aggregate.Aggregator {
	opts := []aggregate.Option{
		aggregate.WithWorkers(a.cfg.Workers),
		aggregate.WithLogger(a.logger),
	}
	if cached && a.cfg.RedisAddr != "" {
		a.cache = cache.Dial(ctx, a.cfg.RedisAddr, a.cfg.CacheTTL, a.logger)
		opts = append(opts, aggregate.WithCache(a.cache))
	}
	return aggregate.New(a.reg, a.fetcher(), opts...)
}

func (a *app) extractor() *extract.Extractor {
	return extract.New(
		extract.WithLocation(a.cfg.Location),
		extract.WithTimeout(a.cfg.PageTimeout),
		extract.WithLogger(a.logger),
	)
}

// rewriter returns nil when no API key is configured.
func (a *app) rewriter() *rewrite.Client {
	if a.cfg.OpenAIKey == "" {
		return nil
	}
	return rewrite.New(a.cfg.OpenAIKey,
		rewrite.WithBaseURL(a.cfg.OpenAIBaseURL),
		rewrite.WithModel(a.cfg.OpenAIModel),
		rewrite.WithLogger(a.logger),
	)
}
