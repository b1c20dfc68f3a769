// Command recover resolves entry operations left pending by an interrupted
// process: unfinished creates are rolled back, unfinished deletes are rolled
// forward. It is intended to be run by an operator or a cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/promptboard/internal/app"
	"github.com/heartmarshall/promptboard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build container", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer c.Close()

	recovered, err := c.Entries.RecoverPending(ctx)
	if err != nil {
		logger.Error("recovery incomplete",
			slog.Int("recovered", recovered),
			slog.String("error", err.Error()),
		)
		c.Close()
		os.Exit(1)
	}

	logger.Info("recovery completed", slog.Int("recovered", recovered))
}
