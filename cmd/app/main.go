package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"skydash.app/internal/app"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found or error loading it")
	}

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if args[0] == "serve" {
		serve(ctx, application)
		return
	}

	err = runCommand(ctx, application, args, os.Stdout)
	if closeErr := application.Close(); closeErr != nil {
		slog.Warn("Error closing storage", "error", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// runCommand restores the stored session, then executes one CLI command
func runCommand(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	cli := newCommandRunner(application.Dependencies(), out)
	cli.session = application.Bootstrap(ctx)
	return cli.Run(ctx, args)
}

func serve(ctx context.Context, application *app.Application) {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting SkyDash dashboard gateway...")
		errCh <- application.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Failed to start application", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Received shutdown signal...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during graceful shutdown", "error", err)
		os.Exit(1)
	}
}
