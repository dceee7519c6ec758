package main

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

	"github.com/T1mof/sprint-planner/internal/config"
	"github.com/T1mof/sprint-planner/internal/handler"
	"github.com/T1mof/sprint-planner/internal/holiday"
	"github.com/T1mof/sprint-planner/internal/repository"
	"github.com/T1mof/sprint-planner/internal/service"
)

func main() {
	config.SetupLogger()

	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	slog.Info("Starting Sprint Planner Service...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := service.NewPlannerService(repo, holiday.Default())
	h := handler.NewHandler(svc, cfg.AdminToken, cfg.RequestTimeout)

	srv := startServer(cfg.Port, h.SetupRouter())

	waitForShutdown(srv)

	return nil
}

// openRepository открывает хранилище, выбранное через STORAGE_BACKEND.
func openRepository(cfg *config.Config) (repository.RepositoryInterface, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendCSV:
		store, err := repository.NewCSVStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open csv store: %w", err)
		}
		slog.Info("Using CSV storage", "data_dir", cfg.DataDir)
		return store, func() {}, nil

	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := cfg.ConnectRedis(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close redis connection", "error", err)
			}
		}
		slog.Info("Using Redis storage", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return repository.NewRedisStore(client, cfg.RedisKeyPrefix), closeFn, nil

	default:
		db, err := cfg.ConnectDB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}

		if err := cfg.RunMigrations(db.DB); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewRepository(db), closeFn, nil
	}
}

// startServer запускает HTTP сервер.
func startServer(port string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server is starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	return srv
}

// waitForShutdown ожидает сигнал остановки и gracefully завершает сервер.
func waitForShutdown(srv *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited gracefully")
}
