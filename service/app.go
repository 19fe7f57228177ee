package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sakibee/app/config"
	"sakibee/app/routes"
	"sakibee/app/services"
	"sakibee/app/views"
)

const shutdownTimeout = 10 * time.Second

// RunAppServer starts the blog service and blocks until SIGINT or SIGTERM.
func RunAppServer(args []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	if len(args) > 0 {
		cfg.Server.Addr = args[0]
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, closeApp, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return 1
	}
	defer closeApp()

	errs := make(chan error, 1)
	go func() {
		logger.Info("starting blog service", "addr", srv.Addr, "database", cfg.Database.Driver, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			logger.Error("server error", "error", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
	}
	return 0
}

// newServer wires the repository, image store, templates and routes into an
// http.Server. The returned func closes the repository.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Server, func() error, error) {
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, nil, err
	}
	images, err := openImageStore(ctx, cfg)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	templates, err := views.Load()
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	router := routes.SetupRoutes(routes.Deps{
		Posts:     services.NewPostService(repo, images, logger),
		Images:    images,
		Templates: templates,
		Config:    cfg,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return srv, repo.Close, nil
}
