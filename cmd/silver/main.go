// Command silver cleans the latest bronze table and writes the silver
// layer.
package main

import (
	"log/slog"
	"os"

	"github.com/angelcm/medallion-etl-go/internal/config"
	"github.com/angelcm/medallion-etl-go/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("loading config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := pipeline.NewRunner(cfg, logger).RunSilver(); err != nil {
		os.Exit(1)
	}
}
