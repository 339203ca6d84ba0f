// ABOUTME: CLI commands for viewing and changing medrec configuration.
// ABOUTME: Reads and writes the JSON config file without opening storage.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change configuration",
	Long: `View or change settings stored in ~/.config/medrec/config.json.

KEYS:

  backend        sqlite (default), memory or charm
  data_dir       Data directory (default ~/.local/share/medrec)
  listen_addr    HTTP listen address (default :5000)
  jwt_secret     Token signing key for 'medrec serve'
  token_ttl      Token lifetime, e.g. 24h
  log_level      debug, info, warn or error
  default_user   Account local commands act as

Environment variables MEDREC_BACKEND, MEDREC_DATA_DIR, PORT, JWT_SECRET and
MEDREC_LOG_LEVEL override the file at run time.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		c.ApplyEnv()

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint(padRight("config", 13)), config.GetConfigPath())
		for _, key := range c.Keys() {
			value, _ := c.Get(key)
			fmt.Fprintf(out, "%s %s\n", faint.Sprint(padRight(key, 13)), displayValue(c, key, value))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Set %s\n", args[0])
		return nil
	},
}

// displayValue masks the secret and fills in defaults for unset keys.
func displayValue(c *config.Config, key, value string) string {
	switch key {
	case "jwt_secret":
		if value == "" {
			return "(generated per process)"
		}
		return "********"
	case "backend":
		return c.GetBackend()
	case "data_dir":
		return c.GetDataDir()
	case "listen_addr":
		return c.GetListenAddr()
	case "log_level":
		return c.GetLogLevel()
	case "token_ttl":
		if value == "" {
			return "24h"
		}
	}
	if value == "" {
		return "-"
	}
	return value
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
