package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/finsight/internal/cache"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/inference"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/Veraticus/finsight/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var envReplacer = strings.NewReplacer(".", "_")

// app holds the services a command works with.
type app struct {
	cfg     *config.Config
	api     *inference.Client
	store   *storage.Store
	cache   service.Cache
	builder *dashboard.Builder
	logger  *slog.Logger
}

// newApp wires the client, optional cache and optional store from the
// loaded configuration. Callers must call close.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	a := &app{cfg: cfg, logger: logger}

	a.cache, err = cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	opts := []inference.Option{
		inference.WithTransport(
			inference.WithClientTimeout(cfg.API.Timeout),
			inference.WithMaxConnsPerHost(cfg.API.MaxConnsPerHost),
		),
		inference.WithLogger(logger),
		inference.WithRateLimit(cfg.API.RateLimitPerSec, cfg.API.RateLimitBurst),
		inference.WithRetry(service.RetryOptions{
			MaxAttempts:  cfg.API.Retry.MaxAttempts,
			InitialDelay: cfg.API.Retry.InitialDelay,
			MaxDelay:     cfg.API.Retry.MaxDelay,
			Multiplier:   2,
			Jitter:       0.2,
		}),
	}
	if a.cache != nil {
		opts = append(opts, inference.WithCache(a.cache, cfg.Cache.TTL))
	}
	a.api, err = inference.New(cfg.API.BaseURL, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	library, err := content.Default()
	if err != nil {
		a.close()
		return nil, err
	}

	builderOpts := []dashboard.Option{
		dashboard.WithLogger(logger),
		dashboard.WithConfig(cfg.Dashboard),
	}
	if cfg.Storage.Enabled() {
		a.store, err = storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := a.store.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		builderOpts = append(builderOpts, dashboard.WithStorage(a.store))
	}
	a.builder = dashboard.New(a.api, library, builderOpts...)

	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close store", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close cache", "error", err)
		}
	}
}

// withApp adapts a command body needing the wired services into a RunE.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args, a)
	}
}

// jsonOutput reports whether --output json was requested.
func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("output")
	return format == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints v as JSON when requested, else calls table.
func render(cmd *cobra.Command, v any, table func(w io.Writer) error) error {
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), v)
	}
	return table(cmd.OutOrStdout())
}
