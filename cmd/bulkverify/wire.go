package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/optimode/bulkverify"
	"github.com/optimode/bulkverify/internal/config"
	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/internal/logging"
)

// loadConfig reads --config plus the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadFromEnv(path)
}

// newValidator builds the validator described by cfg. The returned cleanup
// releases the Redis connection, if one was opened.
func newValidator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bulkverify.Validator, func(), error) {
	cleanup := func() {}

	cacheOpts := []domaincache.Option{domaincache.WithLogger(logger)}
	if cfg.Cache.RedisURL != "" {
		client, err := domaincache.OpenRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open redis cache: %w", err)
		}
		cleanup = func() { _ = client.Close() }
		cacheOpts = append(cacheOpts, domaincache.WithStore(domaincache.NewRedisStore(client, cfg.Cache.KeyPrefix)))
		logger.Info("using redis domain cache", "prefix", cfg.Cache.KeyPrefix)
	}
	cache := domaincache.New(cfg.Cache.TTL(), cacheOpts...)

	v := bulkverify.New(bulkverify.Options{
		BatchLimit:   cfg.Pipeline.BatchLimit,
		StreamLimit:  cfg.Pipeline.StreamLimit,
		BatchWindow:  cfg.Pipeline.BatchWindow,
		StreamWindow: cfg.Pipeline.StreamWindow,
		StreamDelay:  cfg.Pipeline.StreamDelay(),
	}).
		WithLogger(logger).
		WithCache(cache).
		WithDNS(bulkverify.DNSOptions{
			Timeout:       cfg.DNS.Timeout(),
			Attempts:      cfg.DNS.Attempts,
			BaseDelay:     cfg.DNS.BaseDelay(),
			MaxConcurrent: cfg.DNS.MaxConcurrent,
			QPS:           cfg.DNS.QPS,
			Burst:         cfg.DNS.Burst,
			Servers:       cfg.DNS.Servers,
		}).
		WithDomain(bulkverify.DomainOptions{
			TypoThreshold:  cfg.Domains.TypoThreshold,
			DisposableFile: cfg.Domains.DisposableFile,
		})

	if err := v.Ready(); err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return v, cleanup, nil
}

func newLogger(cfg *config.Config, cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}
