package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tasknest/tasknest-go/internal/config"
	"github.com/tasknest/tasknest-go/internal/crypto"
	"github.com/tasknest/tasknest-go/internal/handler"
	"github.com/tasknest/tasknest-go/internal/logging"
	"github.com/tasknest/tasknest-go/internal/metrics"
	"github.com/tasknest/tasknest-go/internal/middleware"
	"github.com/tasknest/tasknest-go/internal/repository"
	"github.com/tasknest/tasknest-go/internal/service"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := repository.Migrate(context.Background(), db); err != nil {
			return err
		}
	}

	hasher, err := crypto.NewHasher(cfg.HashAlgorithm, cfg.BcryptCost)
	if err != nil {
		return err
	}

	tokens, err := crypto.NewTokenIssuer(crypto.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		return err
	}

	m := metrics.New()

	userRepo := repository.NewUserRepository(db)
	authService, err := service.NewAuthService(userRepo, hasher, tokens, m)
	if err != nil {
		return err
	}

	taskRepo := repository.NewTaskRepository(db)
	taskService := service.NewTaskService(taskRepo)

	router := newRouter(routes{
		auth:           handler.NewAuthHandler(authService),
		tasks:          handler.NewTaskHandler(taskService),
		authenticate:   middleware.Authenticate(tokens, userRepo),
		metrics:        m,
		allowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 2)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr(),
			Handler:           newMetricsRouter(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("metrics server starting", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}
