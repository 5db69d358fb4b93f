// Package enhance is the second, independently-scheduled pass: it walks
// generated notes, resolves each note's source artifact, and appends (or
// replaces) the page-by-page recognized-text section.
package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/history"
	"github.com/tsaito/scannote/internal/llm"
	"github.com/tsaito/scannote/internal/note"
	"github.com/tsaito/scannote/internal/render"
	"github.com/tsaito/scannote/internal/scan"
)

// recognizeTemperature runs cold for reproducible text recognition.
const recognizeTemperature = 0.2

type Enhancer struct {
	cfg        *common.Config
	ledger     *history.Ledger
	renderer   render.PageRenderer
	classifier llm.Classifier
	logger     *slog.Logger
}

func New(cfg *common.Config, ledger *history.Ledger, renderer render.PageRenderer,
	classifier llm.Classifier, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{cfg: cfg, ledger: ledger, renderer: renderer, classifier: classifier, logger: logger}
}

// EnhanceAll walks the note output directory and enhances every markdown
// file. Per-note failures are logged and counted; the pass continues.
func (e *Enhancer) EnhanceAll(ctx context.Context) (int, error) {
	root := e.cfg.Enhancer.OutputDirectory
	if root == "" {
		root = e.cfg.Summarizer.MarkdownOutput.DestinationDirectory
	}
	if _, err := os.Stat(root); err != nil {
		return 0, common.NewAppError("CONFIG_ERROR", "output directory not found", err)
	}

	enhanced := 0
	stats, err := scan.Walk(root, []string{"md"}, func(path, _ string) error {
		ok, err := e.EnhanceNote(ctx, path)
		if err != nil {
			e.logger.Error("enhance.note_failed", "note", path, "error", err)
			return err
		}
		if ok {
			enhanced++
		}
		return nil
	})
	if err != nil {
		return enhanced, err
	}
	e.logger.Info("enhance.done", "notes", stats.Matched, "updated", enhanced, "failed", stats.Failed)
	return enhanced, nil
}

// EnhanceNote processes one note. It returns true when the note is up to
// date afterwards, whether that took a fresh recognition run or a skip.
func (e *Enhancer) EnhanceNote(ctx context.Context, mdPath string) (bool, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return false, fmt.Errorf("read note: %w", err)
	}
	content := string(data)

	force := note.IsReprocessOCRRequested(content)

	if !force && note.HasFulltext(content) {
		e.logger.Info("enhance.skip_existing_section", "note", mdPath)
		return true, nil
	}

	sourcePath, err := e.resolveSource(content)
	if err != nil {
		return false, err
	}
	key := scan.CanonicalPath(sourcePath)

	if !force {
		if rec, ok := e.ledger.Get(key); ok && rec.OCRCompleted {
			e.logger.Info("enhance.skip_completed", "note", mdPath, "source", sourcePath)
			return true, nil
		}
	}

	e.logger.Info("enhance.start", "note", mdPath, "source", sourcePath)

	pages, err := e.renderer.RenderPages(ctx, sourcePath)
	if err == nil && len(pages) == 0 {
		err = fmt.Errorf("no pages rendered")
	}
	if err != nil {
		return false, fmt.Errorf("render pages: %w", err)
	}
	// The enhancer always cleans its page images; they can be large.
	defer render.CleanupPages(pages, e.logger)

	parts := e.recognizePages(ctx, pages)

	section := note.BuildFulltextSection(parts)
	updated := note.ApplyFulltext(content, section)
	updated = note.ResetReprocessOCR(updated)

	if err := os.WriteFile(mdPath, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("write note: %w", err)
	}

	e.ledger.Put(key, history.Record{
		MDPath:       scan.CanonicalPath(mdPath),
		OCRCompleted: true,
	})
	_ = e.ledger.Save()

	e.logger.Info("enhance.ok", "note", mdPath, "pages", len(pages))
	return true, nil
}

// resolveSource recovers the source artifact from the note's front matter,
// supporting both a literal path and a [[wiki link]] that is searched for
// recursively under the configured artifact destination base.
func (e *Enhancer) resolveSource(content string) (string, error) {
	ref, ok := note.SourceRef(content)
	if !ok {
		return "", fmt.Errorf("source not found in front matter")
	}

	sourcePath := ref
	if name, isWiki := note.ParseWikiLink(ref); isWiki {
		base := e.cfg.Summarizer.PDFOutput.DestinationDirectory
		if base == "" {
			return "", fmt.Errorf("artifact destination directory not configured; cannot resolve wiki link %q", ref)
		}
		found, ok := scan.FindFileByName(base, name)
		if !ok {
			return "", fmt.Errorf("artifact %q not found under %s", name, base)
		}
		sourcePath = found
	}

	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("source artifact missing: %w", err)
	}
	return sourcePath, nil
}

// recognizePages runs page-by-page recognition up to the configured cap,
// appending a truncation notice when pages were left out. A failed page
// turns into an inline failure marker, never a pass failure.
func (e *Enhancer) recognizePages(ctx context.Context, pages []string) []string {
	maxPages := e.cfg.Enhancer.FulltextMaxPages
	parts := make([]string, 0, len(pages))

	for i, img := range pages {
		if i >= maxPages {
			e.logger.Info("enhance.page_cap_reached", "max_pages", maxPages)
			parts = append(parts, fmt.Sprintf(
				"\n\n> (注意: 設定により最大%dページまでをOCR対象としています。)", maxPages))
			break
		}

		e.logger.Info("enhance.page", "page", i+1, "total", len(pages))
		prompt := llm.BuildFulltextPrompt(e.cfg.Enhancer.FulltextPrompt, i+1)
		text, err := e.classifier.Classify(ctx, llm.ClassifyRequest{
			Prompt:      prompt,
			ImagePaths:  []string{img},
			Temperature: recognizeTemperature,
		})
		if err != nil {
			e.logger.Error("enhance.page_failed", "page", i+1, "error", err)
			text = fmt.Sprintf("### ページ %d\n\n[[読み取り失敗: %v]]", i+1, err)
		}
		parts = append(parts, text)
	}
	return parts
}
