package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	l := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Equal(t, 0, l.Len())
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := Load(path, nil)
	assert.Equal(t, 0, l.Len())
}

func TestLoad_UpgradesLegacyStringEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	raw := `{
        "/scans/a.pdf": "/vault/a.md",
        "/scans/b.pdf": {"md_path": "/vault/b.md", "ocr_completed": true}
    }`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	l := Load(path, nil)
	require.Equal(t, 2, l.Len())

	a, ok := l.Get("/scans/a.pdf")
	require.True(t, ok)
	assert.Equal(t, Record{MDPath: "/vault/a.md", OCRCompleted: false}, a)

	b, ok := l.Get("/scans/b.pdf")
	require.True(t, ok)
	assert.Equal(t, Record{MDPath: "/vault/b.md", OCRCompleted: true}, b)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.json")

	l := Load(path, nil)
	l.Put("/scans/x.pdf", Record{MDPath: "/vault/x.md"})
	l.Put("/scans/y.jpg", Record{MDPath: "/vault/y.md", OCRCompleted: true})
	require.NoError(t, l.Save())

	// The persisted file is plain JSON keyed by source path.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]Record
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 2)

	reloaded := Load(path, nil)
	got, ok := reloaded.Get("/scans/y.jpg")
	require.True(t, ok)
	assert.True(t, got.OCRCompleted)
}

func TestSave_OverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	l := Load(path, nil)
	l.Put("/scans/x.pdf", Record{MDPath: "/vault/x.md"})
	require.NoError(t, l.Save())

	l.Put("/scans/y.pdf", Record{MDPath: "/vault/y.md"})
	require.NoError(t, l.Save())

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "history.json", entries[0].Name())
}
