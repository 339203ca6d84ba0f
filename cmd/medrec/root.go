// ABOUTME: Root Cobra command for the medrec CLI.
// ABOUTME: Loads config and manages the storage lifecycle via PersistentPre/PostRunE.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/config"
	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/records"
	"github.com/harperreed/medrec/internal/storage"
)

var (
	cfg      *config.Config
	repo     storage.Repository
	userFlag string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "medrec",
	Short: "Personal medical record keeper",
	Long: `Medrec keeps patient medical records and flags high-risk readings.

WHAT IT STORES:

  Each record has a patient name, age, blood pressure ("systolic/diastolic"),
  cholesterol (mg/dL), notes and a date. Records belong to one account.

RISK FLAGS:

  High Cholesterol    cholesterol > 200
  High Systolic BP    systolic > 140
  High Diastolic BP   diastolic > 90

QUICK START:

  $ medrec user add alice                     # Create an account
  $ medrec config set default_user alice      # Act as alice by default
  $ medrec add --name "John Doe" --age 50 --bp 150/95 --cholesterol 210
  $ medrec list                               # Newest first
  $ medrec analyze                            # Stats and flagged records

HTTP API:

  $ medrec serve                              # Listens on :5000 by default

MCP INTEGRATION:

  Run 'medrec mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "medrec": { "command": "medrec", "args": ["mcp", "--user", "alice"] }
    }
  }

DATA STORAGE:

  The backend is chosen with 'medrec config set backend <sqlite|memory|charm>'.
  SQLite data lives at ~/.local/share/medrec/medrec.db by default.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupColor()

		if skipsStorage(cmd) {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv()

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRepo()
	},
}

// Execute runs the root command. Storage is closed even when a command fails.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeRepo(); err == nil {
		err = cerr
	}
	return err
}

func closeRepo() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	return err
}

// skipsStorage reports whether cmd runs without opening a backend.
func skipsStorage(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "completion", "config":
			return true
		}
	}
	return false
}

// setupColor disables color for --no-color and for output that is not a terminal.
func setupColor() {
	fd := os.Stdout.Fd()
	if noColor || (!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)) {
		color.NoColor = true
	}
}

// actingUser resolves the account local commands operate on: --user, then
// default_user, then the only account when exactly one exists.
func actingUser() (*models.User, error) {
	name := userFlag
	if name == "" && cfg != nil {
		name = cfg.DefaultUser
	}

	if name == "" {
		users, err := repo.ListUsers()
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		switch len(users) {
		case 0:
			return nil, errors.New("no accounts yet: create one with 'medrec user add <username>'")
		case 1:
			return users[0], nil
		default:
			return nil, errors.New("several accounts exist: pass --user or run 'medrec config set default_user <username>'")
		}
	}

	u, err := repo.GetUserByUsername(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("user %q not found (create it with 'medrec user add %s')", name, name)
		}
		return nil, fmt.Errorf("failed to load user %q: %w", name, err)
	}
	return u, nil
}

// recordStore wraps the open backend in the owner-scoped record service.
func recordStore() *records.Store {
	return records.NewStore(repo)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "account to act as (default: config default_user)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
