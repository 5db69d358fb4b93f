// Command scannote-enhance runs the full-text pass: it walks the generated
// notes, resolves each note's source artifact through the shared history
// ledger, and appends page-by-page recognized text.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/enhance"
	"github.com/tsaito/scannote/internal/history"
	"github.com/tsaito/scannote/internal/llm/openai"
	"github.com/tsaito/scannote/internal/render"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to YAML config file")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if !cfg.Enhancer.Enabled() {
		logger.Info("fulltext OCR is disabled in config")
		return
	}

	if err := os.MkdirAll(cfg.Common.TempDir, 0o755); err != nil {
		logger.Error("failed to create temp directory", "dir", cfg.Common.TempDir, "error", err)
		os.Exit(1)
	}

	ledger := history.Load(cfg.Common.HistoryFile, logger)
	logger.Info("history loaded", "path", cfg.Common.HistoryFile, "entries", ledger.Len())

	classifier := openai.NewClient(openai.Config{
		APIKey:  cfg.Common.LLMAPIKey,
		BaseURL: cfg.Common.LLMBaseURL,
		Model:   cfg.Common.LLMModel,
	}, logger)
	renderer := render.NewPdftoppm(render.Config{TempDir: cfg.Common.TempDir}, logger)

	enhancer := enhance.New(cfg, ledger, renderer, classifier, logger)
	updated, err := enhancer.EnhanceAll(context.Background())
	if err != nil {
		logger.Error("enhancement pass failed", "error", err)
		os.Exit(1)
	}

	logger.Info("enhancement complete", "updated", updated)
	fmt.Printf("OCR enhancement complete. %d files updated.\n", updated)
}
