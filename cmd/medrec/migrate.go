// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Moves every account and record into an empty destination, keeping IDs.
package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/charm"
	"github.com/harperreed/medrec/internal/config"
	"github.com/harperreed/medrec/internal/storage"
)

var (
	migrateTo     string
	migrateToDir  string
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data to another storage backend",
	Long: `Copy every account and record from the configured backend to another one.

IDs are kept, so tokens and record links stay valid after switching.
The destination must be empty. The source is left untouched.

BACKENDS:

  sqlite   Local database file at <dir>/medrec.db
  charm    Charm KV, synced across devices and encrypted with your SSH key

USAGE:

  medrec migrate --to charm --dry-run     # Preview what would be copied
  medrec migrate --to charm               # Copy SQLite data into Charm KV
  medrec migrate --to sqlite --to-dir ~/medrec-backup

AFTER MIGRATION:

  Point medrec at the new backend:
    medrec config set backend charm`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		switch migrateTo {
		case "sqlite", "charm":
		case "memory":
			return errors.New("the memory backend does not persist; migrate to sqlite or charm")
		default:
			return fmt.Errorf("unknown backend: %q (use sqlite or charm)", migrateTo)
		}

		toDir := cfg.GetDataDir()
		if migrateToDir != "" {
			toDir = config.ExpandPath(migrateToDir)
		}
		if migrateTo == cfg.GetBackend() && (migrateTo == "charm" || filepath.Clean(toDir) == filepath.Clean(cfg.GetDataDir())) {
			return errors.New("source and destination are the same store")
		}

		users, err := repo.ListUsers()
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if migrateDryRun {
			color.New(color.FgYellow).Fprintln(out, "Dry run mode - no changes will be made")
			total := 0
			for _, u := range users {
				list, err := repo.ListRecords(u.ID)
				if err != nil {
					return fmt.Errorf("failed to list records for %s: %w", u.Username, err)
				}
				fmt.Fprintf(out, "  %s %d record(s)\n", padRight(u.Username, 20), len(list))
				total += len(list)
			}
			fmt.Fprintf(out, "Would copy %d user(s) and %d record(s) from %s to %s\n",
				len(users), total, cfg.GetBackend(), migrateTo)
			return nil
		}

		dst, err := config.OpenBackend(migrateTo, toDir)
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", migrateTo, err)
		}
		defer dst.Close()

		existing, err := dst.ListUsers()
		if err != nil {
			return fmt.Errorf("failed to inspect destination: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("destination %s already has %d user(s); it must be empty", migrateTo, len(existing))
		}

		// Bulk copies into Charm sync once at the end instead of per write.
		kv, toCharm := dst.(*charm.Client)
		if toCharm {
			kv.SetAutoSync(false)
		}

		summary, err := storage.MigrateData(repo, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		if toCharm {
			if err := kv.Sync(); err != nil {
				color.New(color.FgYellow).Fprintf(out, "⚠ Data copied but sync failed: %v\n", err)
			}
		}

		color.New(color.FgGreen).Fprintf(out, "✓ Migrated %d user(s) and %d record(s) to %s\n",
			summary.Users, summary.Records, migrateTo)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend (sqlite or charm)")
	migrateCmd.Flags().StringVar(&migrateToDir, "to-dir", "", "destination data directory (sqlite only)")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}
