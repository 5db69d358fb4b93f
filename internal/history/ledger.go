// Package history persists the processing ledger shared by the
// classification pass and the full-text enhancer.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Record is the per-artifact ledger entry.
type Record struct {
	MDPath       string `json:"md_path"`
	OCRCompleted bool   `json:"ocr_completed"`
}

// Ledger maps canonical source paths to processing records. It is loaded
// once per process and written through after each successful unit of work.
// Canonicalizing the key is the caller's job; the ledger stores it verbatim.
type Ledger struct {
	path    string
	entries map[string]Record
	logger  *slog.Logger
}

// Load reads the ledger file at path. Read or parse failures are logged and
// yield an empty ledger: history is a cost optimization, not a correctness
// requirement for a cold start. Legacy bare-string entries are upgraded to
// the record shape here so the rest of the code sees exactly one shape.
func Load(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		path:    path,
		entries: make(map[string]Record),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("history.load_failed", "path", path, "error", err)
		}
		return l
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("history.parse_failed", "path", path, "error", err)
		return l
	}

	for key, val := range raw {
		var legacy string
		if err := json.Unmarshal(val, &legacy); err == nil {
			l.entries[key] = Record{MDPath: legacy, OCRCompleted: false}
			continue
		}
		var rec Record
		if err := json.Unmarshal(val, &rec); err != nil {
			logger.Warn("history.entry_skipped", "key", key, "error", err)
			continue
		}
		l.entries[key] = rec
	}

	logger.Debug("history.loaded", "path", path, "entries", len(l.entries))
	return l
}

// Get returns the record for key, if any.
func (l *Ledger) Get(key string) (Record, bool) {
	rec, ok := l.entries[key]
	return rec, ok
}

// Put stores rec under key in memory. Call Save to persist.
func (l *Ledger) Put(key string, rec Record) {
	l.entries[key] = rec
}

// Len reports the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Save serializes the full map and atomically replaces the ledger file via a
// temp-file rename, so readers never observe a partial write. A failed save
// is logged and returned but must not abort the run: the in-memory state
// stays authoritative.
func (l *Ledger) Save() error {
	data, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		l.logger.Error("history.encode_failed", "error", err)
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.logger.Error("history.mkdir_failed", "dir", dir, "error", err)
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		l.logger.Error("history.tmpfile_failed", "error", err)
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		l.logger.Error("history.write_failed", "error", err)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		l.logger.Error("history.close_failed", "error", err)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		l.logger.Error("history.rename_failed", "error", err)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
