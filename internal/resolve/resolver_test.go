package resolve

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaito/scannote/constants"
	"github.com/tsaito/scannote/internal/common"
	"github.com/tsaito/scannote/internal/llm"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func newTestResolver(t *testing.T, policy Policy) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	if policy.MarkdownBaseDir == "" {
		policy.MarkdownBaseDir = filepath.Join(dir, "vault")
	}
	if policy.CopyBaseDir == "" {
		policy.CopyBaseDir = filepath.Join(dir, "archive")
	}
	r := NewResolver(policy, nil)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	return r, dir
}

func TestResolve_BasicMarkdownPath(t *testing.T) {
	r, _ := newTestResolver(t, Policy{CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{Title: "Invoice A", Category: "Finance"},
		"/scans/in.pdf", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(r.policy.MarkdownBaseDir, "Finance", "Invoice_A.md"), paths.MarkdownPath)
	assert.Equal(t, "Finance", paths.Category)
	assert.Empty(t, paths.CopyPath)
}

func TestResolve_EmptyTitleFallsBackToStem(t *testing.T) {
	r, _ := newTestResolver(t, Policy{CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{Title: "  ", Category: "Finance"},
		"/scans/scan_0042.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "scan_0042.md", filepath.Base(paths.MarkdownPath))
}

func TestResolve_CategoryRuleSubstringMatch(t *testing.T) {
	rules := []common.ClassificationRule{
		{Name: "01_経理"},
		{Name: "02_契約"},
	}
	r, _ := newTestResolver(t, Policy{Rules: rules, CategorizationEnabled: true})

	// First configured rule name appearing as a substring wins.
	paths, err := r.Resolve(llm.DocumentFields{Title: "t", Category: "これは01_経理関係の書類"},
		"/scans/in.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "01_経理", paths.Category)

	// No rule matches: the raw value is kept.
	paths, err = r.Resolve(llm.DocumentFields{Title: "t2", Category: "その他"},
		"/scans/in.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "その他", paths.Category)
}

func TestResolve_EmptyCategoryDefaultsToUnclassified(t *testing.T) {
	r, _ := newTestResolver(t, Policy{CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{Title: "t"}, "/scans/in.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultCategory, paths.Category)
}

func TestResolve_CategorizationDisabledKeepsSourceLayout(t *testing.T) {
	r, _ := newTestResolver(t, Policy{CategorizationEnabled: false})

	paths, err := r.Resolve(llm.DocumentFields{Title: "t", Category: "Finance"},
		"/scans/2024/03/in.pdf", filepath.Join("2024", "03"))
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join(r.policy.MarkdownBaseDir, "2024", "03", "t.md"),
		paths.MarkdownPath)
}

func TestResolve_MarkdownCollisionGetsTimestampSuffix(t *testing.T) {
	r, _ := newTestResolver(t, Policy{CategorizationEnabled: true})

	existing := filepath.Join(r.policy.MarkdownBaseDir, "Finance", "Invoice_A.md")
	writeFile(t, existing)

	paths, err := r.Resolve(llm.DocumentFields{Title: "Invoice A", Category: "Finance"},
		"/scans/in.pdf", "")
	require.NoError(t, err)

	assert.NotEqual(t, existing, paths.MarkdownPath)
	assert.Equal(t, "Invoice_A_20240501_103000.md", filepath.Base(paths.MarkdownPath))
	// The pre-existing file is untouched.
	_, statErr := os.Stat(existing)
	assert.NoError(t, statErr)
}

func TestResolve_AutoRenameUsesPublishedDate(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.pdf")
	writeFile(t, src)
	r, _ := newTestResolver(t, Policy{AutoRename: true, AutoCopy: true, CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{
		Title:     "Invoice A",
		Category:  "Finance",
		Published: "2024-01-10",
	}, src, "")
	require.NoError(t, err)
	assert.Equal(t, "20240110_Invoice_A.pdf", filepath.Base(paths.CopyPath))
	assert.Equal(t, filepath.Join(r.policy.CopyBaseDir, "Finance"), filepath.Dir(paths.CopyPath))
}

func TestResolve_AutoRenameYearOnlyFallsBackToMtime(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.pdf")
	writeFile(t, src)
	mtime := time.Date(2022, 7, 15, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	r, _ := newTestResolver(t, Policy{AutoRename: true, AutoCopy: true, CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{
		Title:     "年報",
		Category:  "Finance",
		Published: "2023", // resolves to 20230000, a year-only value
	}, src, "")
	require.NoError(t, err)
	assert.Equal(t, "20220715_年報.pdf", filepath.Base(paths.CopyPath))
}

func TestResolve_AutoRenameMissingSourceFallsBackToNow(t *testing.T) {
	r, _ := newTestResolver(t, Policy{AutoRename: true, AutoCopy: true, CategorizationEnabled: true})

	paths, err := r.Resolve(llm.DocumentFields{Title: "t", Category: "Finance"},
		"/nonexistent/in.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "20240501_t.pdf", filepath.Base(paths.CopyPath))
}

func TestResolve_CopyCollisionGetsTimestampSuffix(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.pdf")
	writeFile(t, src)
	r, _ := newTestResolver(t, Policy{AutoCopy: true, CategorizationEnabled: true})

	existing := filepath.Join(r.policy.CopyBaseDir, "Finance", "in.pdf")
	writeFile(t, existing)

	paths, err := r.Resolve(llm.DocumentFields{Title: "t", Category: "Finance"}, src, "")
	require.NoError(t, err)
	assert.Equal(t, "in_20240501_103000.pdf", filepath.Base(paths.CopyPath))
}
