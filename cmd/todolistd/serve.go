package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kslattery/todolistd/config"
	"github.com/kslattery/todolistd/data"
	"github.com/kslattery/todolistd/handlers"
	"github.com/kslattery/todolistd/litestore"
	"github.com/kslattery/todolistd/pgstore"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the todo list HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "todolistd",
	})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
		logger.Warn("debug mode is on; do not run production like this")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	h := &handlers.Handler{Store: store, Log: logger}
	router := handlers.NewRouter(h, handlers.RouterOptions{
		AllowedHosts: cfg.AllowedHosts,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the storage backend from the config: PostgreSQL when a
// database URL is set, a local SQLite file otherwise.
func openStore(cfg config.Config, logger *log.Logger) (data.Store, error) {
	if cfg.UsesPostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to data store", "store", store.String())
		return store, nil
	}
	store, err := litestore.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Info("opened data store", "store", store.String())
	return store, nil
}
