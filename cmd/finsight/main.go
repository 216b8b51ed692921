package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// errBanner marks a command whose view carried an error banner. The banner
// has already been printed.
var errBanner = errors.New("view failed to load")

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "finsight",
		Short: "📊 Customer churn, fraud and segmentation analytics",
		Long: `finsight: terminal and JSON front end for the customer analytics
inference service.

Every dashboard page (overview, churn, fraud, segmentation, model insights
and more) can be printed in the terminal or served as JSON for a web
front end. Statement files can be turned into churn features, scored and
exported to Google Sheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/finsight/config.yaml)")
	flags.String("base-url", "", "inference service base URL")
	flags.Duration("timeout", 0, "request timeout")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("cache-backend", "", "response cache (none, memory, redis)")
	flags.Duration("cache-ttl", 0, "response cache TTL")
	flags.String("storage-driver", "", "snapshot and history store (sqlite, postgres, mysql, none)")
	flags.StringP("output", "o", "table", "output format (table, json)")

	root.AddCommand(
		versionCmd(),
		configCmd(),
		healthCmd(),
		modelsCmd(),
		metricsCmd(),
		probeCmd(),
		dashboardCmd(),
		customersCmd(),
		analyticsCmd(),
		churnCmd(),
		segmentCmd(),
		fraudCmd(),
		explainCmd(),
		batchProcessCmd(),
		historyCmd(),
		importCmd(),
		exportCmd(),
		serveCmd(),
		docsCmd(),
		navigationCmd(),
		gendocsCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errBanner) {
			fmt.Fprintln(os.Stderr, common.UserMessage(err, err.Error()))
		}
		os.Exit(1)
	}
}

// bindings maps persistent flags onto config keys.
var bindings = map[string]string{
	"base-url":       "api.base_url",
	"timeout":        "api.timeout",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"cache-backend":  "cache.backend",
	"cache-ttl":      "cache.ttl",
	"storage-driver": "storage.driver",
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := config.Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FINSIGHT")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	for flag, key := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	if err := common.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("Loaded config", "file", filepath.Clean(used))
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "finsight version %s\n", version)
			return err
		},
	}
}
