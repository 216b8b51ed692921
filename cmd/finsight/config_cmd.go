package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// secretKeys are masked by config show.
var secretKeys = map[string]bool{
	"password":      true,
	"client_secret": true,
	"refresh_token": true,
	"dsn":           true,
}

const masked = "********"

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the merged configuration from defaults, the config file, FINSIGHT_
environment variables and flags. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(viper.GetViper()); err != nil {
				return err
			}
			settings := maskSecrets(viper.AllSettings())
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), settings)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := viper.ConfigFileUsed()
			if path == "" {
				dir, err := config.Dir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, "config.yaml") + " (not created)"
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			path := filepath.Join(dir, "config.yaml")
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			defaults := viper.New()
			config.SetDefaults(defaults)
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := defaults.WriteConfigAs(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote "+path))
			return err
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	return cmd
}

// maskSecrets returns a copy of settings with secret values replaced.
func maskSecrets(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]any:
			out[k] = maskSecrets(val)
		case string:
			key := strings.ToLower(k)
			if secretKeys[key] && val != "" && (key != "dsn" || hasCredentials(val)) {
				out[k] = masked
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}

// hasCredentials reports whether a dsn may carry a password. Sqlite paths
// do not.
func hasCredentials(dsn string) bool {
	return strings.Contains(dsn, "://") || strings.Contains(dsn, "@")
}
