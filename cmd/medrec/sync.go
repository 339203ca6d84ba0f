// ABOUTME: CLI commands for the Charm KV backend's cloud sync.
// ABOUTME: Shows status, forces a sync, and rebuilds local data from the cloud.
package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/charm"
)

var syncResetYes bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync records across devices (charm backend)",
	Long: `Sync medrec data across devices using Charm Cloud.

Only available with the charm backend:
  medrec config set backend charm

Data is E2E encrypted with your SSH key before upload and syncs
automatically after each write.

COMMANDS:

  status      Show the Charm account and local counts
  now         Sync immediately
  reset       Discard local data and rebuild it from the cloud`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmBackend()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		id, err := c.ID()
		if err != nil {
			color.New(color.FgYellow).Fprintln(out, "Not linked to Charm")
			fmt.Fprintln(out, "\nRun 'charm link' to connect this device.")
			return nil
		}

		users, err := c.ListUsers()
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		total := 0
		for _, u := range users {
			list, err := c.ListRecords(u.ID)
			if err != nil {
				return fmt.Errorf("failed to list records for %s: %w", u.Username, err)
			}
			total += len(list)
		}

		fmt.Fprintln(out, "Charm ID:", id)
		if c.IsReadOnly() {
			color.New(color.FgYellow).Fprintln(out, "⚠ Read-only: another medrec process holds the database")
		} else {
			color.New(color.FgGreen).Fprintln(out, "✓ Connected to Charm")
		}
		fmt.Fprintf(out, "  Users:   %d\n", len(users))
		fmt.Fprintf(out, "  Records: %d\n", total)
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Sync immediately",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmBackend()
		if err != nil {
			return err
		}
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Sync complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Rebuild local data from the cloud",
	Long: `Discard the local Charm KV copy and download it again from Charm Cloud.

Writes that never reached the cloud are lost. Pass --yes to confirm.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncResetYes {
			return errors.New("refusing to reset without --yes")
		}
		c, err := charmBackend()
		if err != nil {
			return err
		}
		if err := c.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Local data rebuilt from Charm Cloud")
		return nil
	},
}

// charmBackend returns the open backend when it is Charm KV.
func charmBackend() (*charm.Client, error) {
	c, ok := repo.(*charm.Client)
	if !ok {
		return nil, fmt.Errorf("sync needs the charm backend (current: %s); run 'medrec config set backend charm'", cfg.GetBackend())
	}
	return c, nil
}

func init() {
	syncResetCmd.Flags().BoolVar(&syncResetYes, "yes", false, "confirm discarding local data")
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncResetCmd)
	rootCmd.AddCommand(syncCmd)
}
