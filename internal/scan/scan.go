// Package scan walks input trees and resolves canonical artifact identity.
package scan

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Stats aggregates one directory walk.
type Stats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// WalkFunc receives each matched file with its sub-path relative to the
// walk root ("" for files directly under the root).
type WalkFunc func(path, relativeDir string) error

// Walk recursively traverses root and calls fn for every file whose
// extension (case-insensitive) is in exts. Per-file errors from fn are
// counted, not propagated: one file's failure never aborts the batch.
func Walk(root string, exts []string, fn WalkFunc) (Stats, error) {
	if strings.TrimSpace(root) == "" {
		return Stats{}, errors.New("root path is required")
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}

	var stats Stats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil // continue walking
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		stats.Matched++

		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil || rel == "." {
			rel = ""
		}
		if err := fn(path, rel); err != nil {
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// CanonicalPath resolves a source path to the absolute, symlink-resolved,
// slash-normalized form used as the ledger key, so separator style and
// relative spellings never produce duplicate identities.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.ToSlash(filepath.Clean(abs))
}

// FindFileByName searches base recursively for the first file named name.
func FindFileByName(base, name string) (string, bool) {
	var found string
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}
