// Package resolve computes deterministic output locations for generated
// notes and copied artifacts.
package resolve

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsaito/scannote/constants"
	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/llm"
	"github.com/tsaito/scannote/internal/naming"
)

// Policy is the format-specific output behavior for one target type.
type Policy struct {
	AutoRename            bool
	AutoCopy              bool
	CopyBaseDir           string
	MarkdownBaseDir       string
	Rules                 []common.ClassificationRule
	CategorizationEnabled bool
}

// Paths is the resolver result. An empty CopyPath means no copy.
type Paths struct {
	MarkdownPath string
	CopyPath     string
	Category     string
}

// Resolver applies one Policy. Its only side effect is directory creation;
// it never writes files.
type Resolver struct {
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(policy Policy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{policy: policy, logger: logger, now: time.Now}
}

// Resolve determines the markdown path, optional copy path, and resolved
// category for one classified artifact.
func (r *Resolver) Resolve(fields llm.DocumentFields, sourcePath, relativeDir string) (Paths, error) {
	title := naming.SanitizeFilename(strings.TrimSpace(fields.Title))
	if title == "" {
		title = stem(sourcePath)
	}

	category := r.resolveCategory(fields.Category)
	sanitizedCategory := naming.SanitizeFilename(category)

	subDir := sanitizedCategory
	if !r.policy.CategorizationEnabled {
		subDir = relativeDir
	}

	mdDir := filepath.Join(r.policy.MarkdownBaseDir, subDir)
	if err := os.MkdirAll(mdDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create markdown dir: %w", err)
	}

	mdPath := filepath.Join(mdDir, title+".md")
	if fileExists(mdPath) {
		// One-shot suffixing; a second collision within the same second
		// is an accepted residual risk.
		ts := r.now().Format("20060102_150405")
		mdPath = filepath.Join(mdDir, fmt.Sprintf("%s_%s.md", title, ts))
	}

	newName := filepath.Base(sourcePath)
	if r.policy.AutoRename {
		newName = r.renamedArtifact(fields, sourcePath, title)
	}

	copyPath := ""
	if r.policy.AutoCopy {
		copyDir := filepath.Join(r.policy.CopyBaseDir, subDir)
		if err := os.MkdirAll(copyDir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("create copy dir: %w", err)
		}
		copyPath = filepath.Join(copyDir, newName)
		if fileExists(copyPath) {
			ts := r.now().Format("20060102_150405")
			ext := filepath.Ext(newName)
			copyPath = filepath.Join(copyDir,
				fmt.Sprintf("%s_%s%s", strings.TrimSuffix(newName, ext), ts, ext))
		}
	}

	return Paths{MarkdownPath: mdPath, CopyPath: copyPath, Category: category}, nil
}

// resolveCategory keeps the first configured rule name that appears as a
// substring of the classifier's raw category text. First match wins over
// rule order; no match keeps the raw value, absence falls back to the
// unclassified bucket.
func (r *Resolver) resolveCategory(aiCategory string) string {
	category := strings.TrimSpace(aiCategory)
	if category == "" {
		category = constants.DefaultCategory
	}
	for _, rule := range r.policy.Rules {
		if strings.Contains(category, rule.Name) {
			return rule.Name
		}
	}
	return category
}

// renamedArtifact derives `<YYYYMMDD>_<title><ext>`. The date prefix comes
// from the published field when it resolves to a full date, else the source
// file's mtime, else now.
func (r *Resolver) renamedArtifact(fields llm.DocumentFields, sourcePath, title string) string {
	prefix, ok := naming.ExtractYYYYMMDD(fields.Published)
	if !ok || strings.HasSuffix(prefix, "0000") {
		if st, err := os.Stat(sourcePath); err == nil {
			prefix = st.ModTime().Format("20060102")
		} else {
			prefix = r.now().Format("20060102")
		}
	}
	return fmt.Sprintf("%s_%s%s", prefix, title, filepath.Ext(sourcePath))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
