package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/config"
	"github.com/sagarc03/pitfall/database"
	"github.com/sagarc03/pitfall/filesystem"
	pitfallhttp "github.com/sagarc03/pitfall/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the pitfall HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 3000, "HTTP server port (env: PITFALL_SERVER_PORT)")
	serveCmd.Flags().Float64("rate-limit", 0, "requests per second per client IP, 0 disables (env: PITFALL_SERVER_RATE_LIMIT)")
	serveCmd.Flags().Int("rate-burst", 0, "rate limiter burst (env: PITFALL_SERVER_RATE_BURST)")
	serveCmd.Flags().Bool("redact-password", false, "blank the password in login responses (env: PITFALL_LOGIN_REDACT_PASSWORD)")
	serveCmd.Flags().Bool("metrics", false, "serve Prometheus metrics on /metrics (env: PITFALL_METRICS_ENABLED)")

	rootCmd.AddCommand(serveCmd)
}

// app is a fully wired pitfall server.
type app struct {
	service *pitfall.Service
	handler http.Handler
	cleanup func()
}

// newApp opens the uploads directory and credential store and builds the router.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	storage, err := filesystem.NewFileStorage(cfg.Files.Path)
	if err != nil {
		return nil, fmt.Errorf("open uploads directory %s: %w (run 'pitfall init' first)", cfg.Files.Path, err)
	}

	users, closeUsers, err := database.OpenUserStore(ctx, cfg.Users.Database(), cfg.Users.Seed())
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	service, err := pitfall.NewService(users, storage, cfg.ServiceConfig(logger))
	if err != nil {
		closeUsers()
		_ = storage.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	handlerConfig := pitfallhttp.HandlerConfig{
		CORS:           cfg.CORS,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		RedactPassword: cfg.Login.RedactPassword,
		Logger:         logger,
	}
	if cfg.Metrics.Enabled {
		handlerConfig.Metrics = pitfallhttp.NewMetrics(service)
	}

	handler := pitfallhttp.NewHandler(&handlerConfig, service)

	return &app{
		service: service,
		handler: handler.Router(),
		cleanup: func() {
			service.Close()
			closeUsers()
			_ = storage.Close()
		},
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := shutdownContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.cleanup()

	slog.Info("credential store ready", "backend", cfg.Users.Backend)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "files", cfg.Files.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}

	// Monitor tasks have no stop endpoint; they end with the process.
	a.service.Close()
	for _, task := range a.service.Monitors().Tasks() {
		slog.Debug("monitor task", "id", task.ID, "task_id", task.TaskID, "interval", task.Interval, "ticks", task.Ticks)
	}
	slog.Info("monitor tasks stopped", "started", a.service.MonitorCount())

	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}

