// Command analyze reads the enriched corpus produced by the enrich command,
// groups it by aircraft category, and asks the text-generation service for a
// narrative analysis per group, writing the results as a JSON map consumed by
// the dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lentoturva/report-etl/internal/adapter/genai"
	"github.com/lentoturva/report-etl/internal/analysis"
	"github.com/lentoturva/report-etl/internal/config"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("analysis run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.GenAIKey == "" {
		return fmt.Errorf("GENAI_API_KEY is required for analysis")
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("read enriched corpus %s: %w", cfg.OutputPath, err)
	}
	var records []domain.EnrichedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse enriched corpus %s: %w", cfg.OutputPath, err)
	}
	logger.Info("enriched corpus loaded", "records", len(records))

	client := genai.NewClient(cfg.GenAIKey, cfg.GenAIModel, "", cfg.GenAITimeout, logger)
	gen := analysis.New(client, analysis.Config{
		Retries:        cfg.FallbackRetries,
		InitialBackoff: cfg.FallbackBackoff,
		GroupDelay:     cfg.AnalysisDelay,
	}, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyses, err := gen.Run(ctx, records)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analyses: %w", err)
	}
	if err := os.WriteFile(cfg.AnalysisPath, out, 0o644); err != nil {
		return fmt.Errorf("write analyses %s: %w", cfg.AnalysisPath, err)
	}

	logger.Info("analyses written", "path", cfg.AnalysisPath, "groups", len(analyses))
	return nil
}
