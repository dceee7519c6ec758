package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/T1mof/sprint-planner/internal/cli"
	"github.com/T1mof/sprint-planner/internal/config"
)

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	slog.SetDefault(config.NewLogger(os.Stderr, level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(&cli.App{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
