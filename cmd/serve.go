package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forktree/cache"
	"forktree/config"
	"forktree/dag"
	"forktree/db"
	"forktree/handlers"
	"forktree/layout"
	"forktree/logger"
	"forktree/notify"
	"forktree/repository"
	"forktree/routers"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	if err := logger.InitLogger(cfg.Log.AppLogFile, cfg.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Logger.Sync()

	logger.Logger.Info("Starting forktree server...")

	// Connect to LevelDB
	ldb, err := db.NewLevelDB(cfg.LevelDB.Path)
	if err != nil {
		logger.Logger.Error("Failed to open leveldb", zap.String("path", cfg.LevelDB.Path), zap.Error(err))
		return err
	}
	defer ldb.Close()

	snapshotRepo := repository.NewSnapshotRepository(ldb)

	layouts, err := cache.NewLayoutCache(cfg.Cache.Size)
	if err != nil {
		return err
	}

	tracker, err := dag.NewTracker(snapshotRepo, layouts, notify.NewBroker(16), dag.TrackerOptions{
		Layout: layout.Options{
			HorizontalGap: cfg.Layout.HorizontalGap,
			VerticalGap:   cfg.Layout.VerticalGap,
		},
		Window:   cfg.Window.MaxInterestingHeights,
		MaxForks: cfg.Forks.Max,
	})
	if err != nil {
		return err
	}
	if err := tracker.RegisterNetworks(cfg.Networks); err != nil {
		return fmt.Errorf("register networks: %w", err)
	}
	for _, n := range cfg.Networks {
		logger.Logger.Info("Network configured", zap.Uint32("id", n.ID), zap.String("name", n.Name))
	}

	h := handlers.NewHandler(tracker, cfg.SSE.KeepAlive)

	r := mux.NewRouter()
	routers.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Logger.Error("Server stopped", zap.Error(err))
			return err
		}
	case <-sigCh:
		logger.Logger.Info("Shutdown signal received, exiting...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// SSE streams never finish on their own
	if err := srv.Shutdown(ctx); err != nil {
		return srv.Close()
	}
	return nil
}
