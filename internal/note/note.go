// Package note generates knowledge-base notes and manipulates their
// front matter and full-text section.
package note

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tsaito/scannote/constants"
	"github.com/tsaito/scannote/internal/llm"
)

var (
	reReprocess     = regexp.MustCompile(`(?im)^reprocess:\s*true`)
	reReprocessOCR  = regexp.MustCompile(`(?im)^reprocess_ocr:\s*true`)
	reSourceField   = regexp.MustCompile(`(?m)^source:\s*"(.*?)"`)
	reWikiLink      = regexp.MustCompile(`^\[\[(.*?)\]\]$`)
	reFulltextBlock = regexp.MustCompile(`(?s)\n---\n\n` + constants.FulltextHeading + `.*`)
)

// Generate writes a new note: front matter, title heading, summary, and a
// preview embed of the (possibly renamed) original artifact.
func Generate(path string, fields llm.DocumentFields, rawReply, category, sourceFileName string, now time.Time) error {
	tags := make([]string, 0, len(fields.Tags))
	for _, tag := range fields.Tags {
		if !strings.HasPrefix(tag, constants.AutoTagPrefix) {
			tag = constants.AutoTagPrefix + tag
		}
		tags = append(tags, tag)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	wikiLink := "[[" + sourceFileName + "]]"

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", fields.Title)
	fmt.Fprintf(&b, "category: %q\n", category)
	fmt.Fprintf(&b, "source: %q\n", wikiLink)
	fmt.Fprintf(&b, "author: %q\n", fields.Author)
	fmt.Fprintf(&b, "published: %q\n", fields.Published)
	fmt.Fprintf(&b, "created: %q\n", timestamp)
	fmt.Fprintf(&b, "description: %q\n", fields.Description)
	fmt.Fprintf(&b, "tags: %s\n", tagsJSON)
	fmt.Fprintf(&b, "date: %s\n", timestamp)
	fmt.Fprintf(&b, "status: '%s'\n", constants.NoteStatusProcessed)
	b.WriteString("reprocess_ocr: false\n")
	b.WriteString("---\n\n")

	title := fields.Title
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	summary := fields.Summary
	if summary == "" {
		summary = rawReply
	}
	b.WriteString(summary)

	fmt.Fprintf(&b, "\n\n%s\n\n![[%s]]", constants.PreviewHeading, sourceFileName)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ShouldReprocess decides whether a previously-generated note needs a fresh
// classification run: the note is gone, the run is forcing reprocessing, or
// the note's front matter carries an explicit `reprocess: true` (checked
// within the first 50 lines, case-insensitive).
func ShouldReprocess(mdPath string, force bool) bool {
	if _, err := os.Stat(mdPath); err != nil {
		return true
	}
	if force {
		return true
	}

	f, err := os.Open(mdPath)
	if err != nil {
		return false
	}
	defer f.Close()

	var head strings.Builder
	scanner := bufio.NewScanner(f)
	for i := 0; i < 50 && scanner.Scan(); i++ {
		head.WriteString(scanner.Text())
		head.WriteString("\n")
	}
	return reReprocess.MatchString(head.String())
}

// SourceRef extracts the raw source value from front matter.
func SourceRef(content string) (string, bool) {
	m := reSourceField.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseWikiLink unwraps a `[[filename]]` reference. Literal paths return
// ok=false and should be used as-is.
func ParseWikiLink(ref string) (string, bool) {
	m := reWikiLink.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasFulltext reports whether the note already carries a recognized-text
// section.
func HasFulltext(content string) bool {
	return strings.Contains(content, constants.FulltextHeading)
}

// IsReprocessOCRRequested reports the per-note full-text re-run flag.
func IsReprocessOCRRequested(content string) bool {
	return reReprocessOCR.MatchString(content)
}

// BuildFulltextSection assembles the demarcated full-text section from
// per-page parts.
func BuildFulltextSection(parts []string) string {
	header := "\n---\n\n" + constants.FulltextHeading + "\n\n" +
		"> このセクションはAIにより画像から全文OCRされた内容です。\n" +
		"> レイアウトの忠実再現ではなく、可読性と検索性を優先しています。\n\n"
	return header + strings.Join(parts, "\n\n")
}

// ApplyFulltext appends the section, or replaces the existing one in place.
// Content preceding the section marker is never touched.
func ApplyFulltext(content, section string) string {
	if HasFulltext(content) {
		return reFulltextBlock.ReplaceAllLiteralString(content, section)
	}
	return content + section
}

// ResetReprocessOCR flips `reprocess_ocr: true` back to false after a
// successful enhancement write.
func ResetReprocessOCR(content string) string {
	return reReprocessOCR.ReplaceAllLiteralString(content, "reprocess_ocr: false")
}
