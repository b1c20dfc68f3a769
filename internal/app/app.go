package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/promptboard/internal/config"
	"github.com/heartmarshall/promptboard/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, wires the
// stores, resolves operations an earlier process left pending and serves
// the health probes until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("documents_driver", cfg.Documents.Driver),
		slog.String("blob_driver", cfg.Blob.Driver),
	)

	c, err := Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("app.Run: %w", err)
	}
	defer c.Close()

	recovered, err := c.Entries.RecoverPending(ctx)
	if err != nil {
		logger.WarnContext(ctx, "some pending operations were not recovered",
			slog.Int("recovered", recovered),
			slog.String("error", err.Error()),
		)
	} else if recovered > 0 {
		logger.InfoContext(ctx, "pending operations recovered", slog.Int("count", recovered))
	}

	return serveHealth(ctx, cfg.Health, rest.NewHealthHandler(c.Components(), BuildVersion()), logger)
}

func serveHealth(ctx context.Context, cfg config.HealthConfig, h *rest.HealthHandler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("health server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server shutdown: %w", err)
	}
	logger.Info("health server stopped")
	return nil
}
