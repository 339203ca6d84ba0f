// ABOUTME: HTTP server exposing accounts, records, statistics and exports.
// ABOUTME: Routes are registered on a gorilla/mux router behind logging and CORS.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/harperreed/medrec/internal/auth"
	"github.com/harperreed/medrec/internal/records"
)

// Server wires the record store and auth service to HTTP.
type Server struct {
	records *records.Store
	auth    *auth.Service
	logger  *log.Logger
	router  *mux.Router
	now     func() time.Time
}

// NewServer creates a Server and registers its routes.
func NewServer(store *records.Store, authSvc *auth.Service, logger *log.Logger) *Server {
	s := &Server{
		records: store,
		auth:    authSvc,
		logger:  logger,
		router:  mux.NewRouter(),
		now:     time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.withRequestLog, withCORS)

	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	p := r.NewRoute().Subrouter()
	p.Use(s.requireAuth)
	p.HandleFunc("/records", s.handleListRecords).Methods(http.MethodGet)
	p.HandleFunc("/records", s.handleCreateRecord).Methods(http.MethodPost)
	p.HandleFunc("/records/{id}", s.handleGetRecord).Methods(http.MethodGet)
	p.HandleFunc("/records/{id}", s.handleUpdateRecord).Methods(http.MethodPut)
	p.HandleFunc("/records/{id}", s.handleDeleteRecord).Methods(http.MethodDelete)
	p.HandleFunc("/dashboard/stats", s.handleStats).Methods(http.MethodGet)
	p.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	p.HandleFunc("/pdf/{id}", s.handlePDF).Methods(http.MethodGet)
	p.HandleFunc("/export/csv", s.handleCSV).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
