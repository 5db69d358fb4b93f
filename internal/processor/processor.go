// Package processor orchestrates the per-artifact classification pipeline:
// identity → skip check → page acquisition → classify → parse → path
// resolution → note generation → ledger update → artifact copy → cleanup.
package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/history"
	"github.com/tsaito/scannote/internal/llm"
	"github.com/tsaito/scannote/internal/note"
	"github.com/tsaito/scannote/internal/render"
	"github.com/tsaito/scannote/internal/resolve"
	"github.com/tsaito/scannote/internal/scan"
)

// Outcome of one artifact.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// classifyTemperature trades a little creativity for usable summaries;
// recognition passes run colder (see enhance).
const classifyTemperature = 0.7

// Result summarizes one artifact for logs and the run report.
type Result struct {
	SourcePath string
	NotePath   string
	CopyPath   string
	Category   string
	Status     string
	Err        string
}

// Processor handles all artifacts of one configured target (PDF or image).
type Processor struct {
	cfg        *common.Config
	renderer   render.PageRenderer
	classifier llm.Classifier
	resolver   *resolve.Resolver
	ledger     *history.Ledger
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg *common.Config, policy resolve.Policy, ledger *history.Ledger,
	renderer render.PageRenderer, classifier llm.Classifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:        cfg,
		renderer:   renderer,
		classifier: classifier,
		resolver:   resolve.NewResolver(policy, logger),
		ledger:     ledger,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessPDF runs the full pipeline for one PDF artifact.
func (p *Processor) ProcessPDF(ctx context.Context, pdfPath, relativeDir string) Result {
	key := scan.CanonicalPath(pdfPath)

	if res, skip := p.skipCheck(key, pdfPath); skip {
		return res
	}
	p.logger.Info("processor.pdf.start", "path", pdfPath)

	pages, err := p.renderer.RenderPages(ctx, pdfPath)
	if err == nil && len(pages) == 0 {
		err = fmt.Errorf("no pages rendered")
	}
	if err != nil {
		p.logger.Error("processor.render_failed", "path", pdfPath, "error", err)
		return failed(pdfPath, fmt.Errorf("render pages: %w", err))
	}
	defer func() {
		if !p.cfg.Common.KeepTempFiles {
			render.CleanupPages(pages, p.logger)
		}
	}()

	aiPages, samplingNote := p.samplePages(pages)

	prompt := llm.BuildClassificationPrompt(
		p.cfg.Summarizer.AIAnalysis.Prompt,
		samplingNote,
		p.cfg.Summarizer.AIAnalysis.ClassificationRules,
	)
	return p.classifyAndWrite(ctx, key, pdfPath, relativeDir, prompt, aiPages)
}

// ProcessImage runs the pipeline for one image artifact. Images go to the
// classifier directly; no page rendering or sampling is involved.
func (p *Processor) ProcessImage(ctx context.Context, imagePath, relativeDir string) Result {
	key := scan.CanonicalPath(imagePath)

	if res, skip := p.skipCheck(key, imagePath); skip {
		return res
	}
	p.logger.Info("processor.image.start", "path", imagePath)

	prompt := llm.BuildClassificationPrompt(
		p.cfg.Summarizer.AIAnalysis.Prompt,
		"",
		p.cfg.Summarizer.AIAnalysis.ClassificationRules,
	)
	return p.classifyAndWrite(ctx, key, imagePath, relativeDir, prompt, []string{imagePath})
}

// skipCheck consults the ledger: already processed, note still on disk, and
// no re-processing requested means the costly classifier call is skipped.
func (p *Processor) skipCheck(key, sourcePath string) (Result, bool) {
	rec, ok := p.ledger.Get(key)
	if !ok {
		return Result{}, false
	}
	force := p.cfg.Summarizer.Control.ForceReprocess
	if !note.ShouldReprocess(rec.MDPath, force) {
		p.logger.Info("processor.skip", "path", sourcePath, "note", rec.MDPath)
		return Result{
			SourcePath: sourcePath,
			NotePath:   rec.MDPath,
			Status:     StatusSkipped,
		}, true
	}
	p.logger.Info("processor.reprocess", "path", sourcePath)
	return Result{}, false
}

// samplePages applies the head-and-tail page budget: when the document
// exceeds the cap, the first N-1 pages plus the final page are sent, and
// the returned note names the included page numbers and the true total.
func (p *Processor) samplePages(pages []string) ([]string, string) {
	maxPages := p.cfg.Summarizer.AIAnalysis.MaxPagesToAI
	if maxPages < 1 {
		maxPages = 1
	}
	total := len(pages)
	if total <= maxPages {
		return pages, ""
	}

	sampled := make([]string, 0, maxPages)
	sampled = append(sampled, pages[:maxPages-1]...)
	sampled = append(sampled, pages[total-1])

	included := make([]int, 0, maxPages)
	for i := 0; i < maxPages-1; i++ {
		included = append(included, i+1)
	}
	included = append(included, total)

	p.logger.Info("processor.sampling", "sent", len(sampled), "total", total)
	return sampled, llm.BuildSamplingNote(included, total)
}

func (p *Processor) classifyAndWrite(ctx context.Context, key, sourcePath, relativeDir, prompt string, images []string) Result {
	reply, err := p.classifier.Classify(ctx, llm.ClassifyRequest{
		Prompt:      prompt,
		ImagePaths:  images,
		Temperature: classifyTemperature,
	})
	if err != nil {
		// Degraded reply instead of a hard failure: the parser's fallback
		// keeps the raw error visible in the generated note.
		p.logger.Error("processor.classify_failed", "path", sourcePath, "error", err)
		reply = fmt.Sprintf("AI要約の取得に失敗しました: %v", err)
	}

	fields := llm.ParseResponse(reply, stem(sourcePath))

	paths, err := p.resolver.Resolve(fields, sourcePath, relativeDir)
	if err != nil {
		p.logger.Error("processor.resolve_failed", "path", sourcePath, "error", err)
		return failed(sourcePath, err)
	}

	finalName := filepath.Base(sourcePath)
	if paths.CopyPath != "" {
		finalName = filepath.Base(paths.CopyPath)
	}

	if err := note.Generate(paths.MarkdownPath, fields, reply, paths.Category, finalName, p.now()); err != nil {
		p.logger.Error("processor.note_failed", "path", sourcePath, "error", err)
		return failed(sourcePath, err)
	}
	p.logger.Info("processor.note_ok", "path", sourcePath, "note", paths.MarkdownPath, "category", paths.Category)

	p.ledger.Put(key, history.Record{
		MDPath:       scan.CanonicalPath(paths.MarkdownPath),
		OCRCompleted: false,
	})
	// Save failures are logged inside the ledger and are non-fatal: the
	// in-memory state stays authoritative for the rest of the run.
	_ = p.ledger.Save()

	if paths.CopyPath != "" {
		if err := copyFile(sourcePath, paths.CopyPath); err != nil {
			p.logger.Error("processor.copy_failed", "path", sourcePath, "dest", paths.CopyPath, "error", err)
			return failed(sourcePath, err)
		}
		p.logger.Info("processor.copy_ok", "path", sourcePath, "dest", paths.CopyPath)
	}

	return Result{
		SourcePath: sourcePath,
		NotePath:   paths.MarkdownPath,
		CopyPath:   paths.CopyPath,
		Category:   paths.Category,
		Status:     StatusProcessed,
	}
}

func failed(sourcePath string, err error) Result {
	return Result{SourcePath: sourcePath, Status: StatusFailed, Err: err.Error()}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// copyFile copies contents and mode and preserves the source mtime, like
// the usual copy2 behavior archival tools expect.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, st.ModTime(), st.ModTime())
}
