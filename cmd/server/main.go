// Command server hosts the planning API for one vault.
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

	flag "github.com/spf13/pflag"

	"vault-planning/internal/auth"
	"vault-planning/internal/config"
	"vault-planning/internal/handlers"
	"vault-planning/internal/planning"
	"vault-planning/internal/realtime"
	"vault-planning/internal/routes"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	vault := flags.String("vault", "", "vault root directory (overrides config)")
	addr := flags.String("addr", "", "listen address (overrides config)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *vault != "" {
		cfg.VaultRoot = *vault
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	hub := realtime.NewHub(logger)
	engine, err := planning.Open(planning.Options{
		VaultRoot: cfg.VaultRoot,
		Logger:    logger,
		Publisher: hub,
	}, cfg.DatabaseOptions())
	if err != nil {
		return fmt.Errorf("open vault %s: %w", cfg.VaultRoot, err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("close vault", "error", err)
		}
	}()

	issuer := auth.NewIssuer(cfg.Auth, engine.VaultID())
	router := routes.SetupRoutes(handlers.New(engine, issuer, hub, logger), issuer)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "vault", cfg.VaultRoot, "vault_id", engine.VaultID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
