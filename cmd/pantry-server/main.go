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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/httpapi"
	"pantry-planner/internal/logging"
	"pantry-planner/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	var configFlag string
	cmd := &cobra.Command{
		Use:           "pantry-server",
		Short:         "Serve the shopping list API and Telegram webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFlag)
		},
	}
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer a.Close()

	opts := httpapi.Options{
		JWTSecret:    []byte(cfg.Server.JWTSecret),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       logger,
	}

	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		if bot, err = telegram.NewBot(cfg.Telegram, a, logger); err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		opts.Webhook = bot.Handler()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpapi.NewRouter(a, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port, "backend", cfg.Store.Backend, "telegram", bot != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if bot != nil {
		bot.Wait()
	}

	logger.Info("server exiting")
	return nil
}
