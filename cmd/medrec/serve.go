// ABOUTME: CLI command for running the HTTP API server.
// ABOUTME: Wires config, auth and the record store into the gorilla/mux router.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/api"
	"github.com/harperreed/medrec/internal/auth"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the JSON HTTP API.

ENDPOINTS:

  POST   /register            Create an account
  POST   /login               Get a bearer token
  GET    /records?search=     List records (newest first)
  GET    /records/{id}        One record
  POST   /records             Create
  PUT    /records/{id}        Replace
  DELETE /records/{id}        Delete
  GET    /dashboard/stats     Dashboard summary
  GET    /analysis            Stats plus flagged records
  GET    /pdf/{id}            PDF report for one record
  GET    /export/csv          CSV of all records
  GET    /health              Liveness check

CONFIGURATION:

  listen_addr / PORT          Address to bind (default :5000)
  jwt_secret / JWT_SECRET     Token signing key; a random one is generated
                              when unset, so tokens end with the process
  token_ttl                   Token lifetime (default 24h)
  log_level / MEDREC_LOG_LEVEL  debug, info, warn or error`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		ttl, err := cfg.GetTokenTTL()
		if err != nil {
			return err
		}

		secret := cfg.JWTSecret
		if secret == "" {
			secret, err = randomSecret()
			if err != nil {
				return err
			}
			logger.Warn("no jwt_secret configured; using a per-process secret")
		}

		addr := cfg.GetListenAddr()
		if serveAddr != "" {
			addr = serveAddr
		}

		server := api.NewServer(recordStore(), auth.NewService(repo, secret, ttl), logger)
		logger.Info("starting medrec api", "backend", cfg.GetBackend(), "token_ttl", ttl)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.ListenAndServe(ctx, addr)
	},
}

// newLogger builds the structured stderr logger at the configured level.
func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.GetLogLevel(), err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "medrec",
		ReportTimestamp: true,
	}), nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config listen_addr or :5000)")
	rootCmd.AddCommand(serveCmd)
}
