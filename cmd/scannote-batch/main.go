// Command scannote-batch runs the classification pass: it scans the
// configured input directories, classifies each new document with the
// vision model, and writes knowledge-base notes plus renamed copies.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/tsaito/scannote/constants"
	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/export"
	"github.com/tsaito/scannote/internal/history"
	"github.com/tsaito/scannote/internal/llm/openai"
	"github.com/tsaito/scannote/internal/processor"
	"github.com/tsaito/scannote/internal/render"
	"github.com/tsaito/scannote/internal/resolve"
	"github.com/tsaito/scannote/internal/scan"
)

type target struct {
	kind     string // constants.PDF | constants.IMAGE
	inputDir string
	exts     []string
	policy   resolve.Policy
}

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to YAML config file")
		force      = flag.Bool("force", false, "reprocess artifacts even when a note already exists")
		reportOut  = flag.String("report", "", "output XLSX run report path (optional, defaults to the markdown destination)")
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
	if *force {
		cfg.Summarizer.Control.ForceReprocess = true
	}

	if err := os.MkdirAll(cfg.Common.TempDir, 0o755); err != nil {
		logger.Error("failed to create temp directory", "dir", cfg.Common.TempDir, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	startedAt := time.Now()

	ledger := history.Load(cfg.Common.HistoryFile, logger)
	logger.Info("history loaded", "path", cfg.Common.HistoryFile, "entries", ledger.Len())

	classifier := openai.NewClient(openai.Config{
		APIKey:  cfg.Common.LLMAPIKey,
		BaseURL: cfg.Common.LLMBaseURL,
		Model:   cfg.Common.LLMModel,
	}, logger)
	renderer := render.NewPdftoppm(render.Config{TempDir: cfg.Common.TempDir}, logger)

	var results []processor.Result
	seen := map[string]struct{}{}

	for _, t := range buildTargets(cfg) {
		if t.inputDir == "" {
			continue
		}
		if _, err := os.Stat(t.inputDir); err != nil {
			logger.Warn("input directory missing, skipping", "kind", t.kind, "dir", t.inputDir)
			continue
		}
		dedupeKey := t.kind + "|" + scan.CanonicalPath(t.inputDir)
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}

		logger.Info("scanning directory", "kind", t.kind, "dir", t.inputDir)
		proc := processor.New(cfg, t.policy, ledger, renderer, classifier, logger)

		stats, err := scan.Walk(t.inputDir, t.exts, func(path, relativeDir string) error {
			var res processor.Result
			if t.kind == constants.PDF {
				res = proc.ProcessPDF(ctx, path, relativeDir)
			} else {
				res = proc.ProcessImage(ctx, path, relativeDir)
			}
			results = append(results, res)
			if res.Status == processor.StatusFailed {
				return fmt.Errorf("%s", res.Err)
			}
			return nil
		})
		if err != nil {
			logger.Error("directory walk failed", "dir", t.inputDir, "error", err)
			continue
		}
		logger.Info("finished directory", "kind", t.kind, "dir", t.inputDir,
			"matched", stats.Matched, "failed", stats.Failed)
	}

	out := *reportOut
	if out == "" {
		out = filepath.Join(cfg.Summarizer.MarkdownOutput.DestinationDirectory, "run_report.xlsx")
	}
	reportBytes, err := export.NewService(logger).BuildRunReportXLSX(results, startedAt)
	if err != nil {
		logger.Error("failed to build run report", "error", err)
	} else if err := os.WriteFile(out, reportBytes, 0o644); err != nil {
		logger.Error("failed to write run report", "path", out, "error", err)
	}

	processed, skipped, failures := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case processor.StatusProcessed:
			processed++
		case processor.StatusSkipped:
			skipped++
		case processor.StatusFailed:
			failures++
		}
	}
	logger.Info("batch complete",
		"processed", processed, "skipped", skipped, "failures", failures,
		"elapsed", time.Since(startedAt).String())

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Processed: %d\n", processed)
	fmt.Printf("- Skipped:   %d\n", skipped)
	fmt.Printf("- Failures:  %d\n", failures)
	fmt.Printf("- Report:    %s\n", out)
}

// buildTargets maps the config's legacy and per-format sections onto
// processing targets. The legacy input shape is PDF-only and carries the
// pdf_output destination with no rename/copy automation.
func buildTargets(cfg *common.Config) []target {
	var targets []target

	if cfg.Summarizer.Input != nil {
		targets = append(targets, target{
			kind:     constants.PDF,
			inputDir: cfg.Summarizer.Input.Directory,
			exts:     constants.PDFExtensions,
			policy: resolve.Policy{
				CopyBaseDir:           cfg.Summarizer.PDFOutput.DestinationDirectory,
				MarkdownBaseDir:       cfg.Summarizer.MarkdownOutput.DestinationDirectory,
				Rules:                 cfg.Summarizer.AIAnalysis.ClassificationRules,
				CategorizationEnabled: cfg.Summarizer.AIAnalysis.CategorizationEnabled(),
			},
		})
	}
	if cfg.Summarizer.PDF != nil {
		targets = append(targets, target{
			kind:     constants.PDF,
			inputDir: cfg.Summarizer.PDF.InputDirectory,
			exts:     constants.PDFExtensions,
			policy:   policyFor(cfg, cfg.Summarizer.PDF),
		})
	}
	if cfg.Summarizer.JPEG != nil {
		targets = append(targets, target{
			kind:     constants.IMAGE,
			inputDir: cfg.Summarizer.JPEG.InputDirectory,
			exts:     constants.ImageExtensions,
			policy:   policyFor(cfg, cfg.Summarizer.JPEG),
		})
	}
	return targets
}

func policyFor(cfg *common.Config, t *common.TargetConfig) resolve.Policy {
	return resolve.Policy{
		AutoRename:            t.AutoRename,
		AutoCopy:              t.AutoCopy,
		CopyBaseDir:           t.DestinationDirectory,
		MarkdownBaseDir:       cfg.Summarizer.MarkdownOutput.DestinationDirectory,
		Rules:                 cfg.Summarizer.AIAnalysis.ClassificationRules,
		CategorizationEnabled: cfg.Summarizer.AIAnalysis.CategorizationEnabled(),
	}
}
