package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for pdftoppm: it drops page files next to the output
// prefix the way the real binary does.
type fakeRunner struct {
	pages int
	err   error
	args  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	if f.err != nil {
		return nil, []byte("Syntax Error: file is damaged"), f.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		path := fmt.Sprintf("%s-%02d.png", prefix, i)
		if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestRenderer(t *testing.T, runner Runner) (*Pdftoppm, string) {
	t.Helper()
	tempDir := t.TempDir()
	r := NewPdftoppm(Config{TempDir: tempDir}, nil)
	r.runner = runner
	return r, tempDir
}

func TestRenderPages_OrderedOutput(t *testing.T) {
	runner := &fakeRunner{pages: 12}
	r, tempDir := newTestRenderer(t, runner)

	pages, err := r.RenderPages(context.Background(), "/scans/in.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 12)

	// Zero-padded page numbers keep lexical order equal to page order.
	assert.Equal(t, filepath.Join(tempDir, "in_page-01.png"), pages[0])
	assert.Equal(t, filepath.Join(tempDir, "in_page-12.png"), pages[11])

	assert.Equal(t, []string{"pdftoppm", "-r", "150", "-png", "/scans/in.pdf",
		filepath.Join(tempDir, "in_page")}, runner.args)
}

func TestRenderPages_RunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	r, _ := newTestRenderer(t, runner)

	_, err := r.RenderPages(context.Background(), "/scans/bad.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
	assert.Contains(t, err.Error(), "file is damaged")
}

func TestRenderPages_NoImagesProduced(t *testing.T) {
	runner := &fakeRunner{pages: 0}
	r, _ := newTestRenderer(t, runner)

	_, err := r.RenderPages(context.Background(), "/scans/empty.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}

func TestCleanupPages_RemovesAndTolerates(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "p-01.png")
	require.NoError(t, os.WriteFile(existing, []byte("png"), 0o644))

	CleanupPages([]string{existing, filepath.Join(dir, "gone.png")}, nil)

	_, err := os.Stat(existing)
	assert.True(t, os.IsNotExist(err))
}
