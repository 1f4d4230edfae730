// Package directory maintains the process-wide mapping from channel id to
// display name. The mapping is loaded from a JSON file at startup and
// flushed back on every upsert. Entries are added, never removed.
package directory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Directory is a concurrency-safe channel id -> title mapping with
// best-effort file persistence.
type Directory struct {
	logger *slog.Logger
	path   string

	mu       sync.RWMutex
	channels map[string]string
}

// Load reads the directory file at path and returns a Directory backed by
// it. A missing file yields an empty directory; any other read or parse
// failure is an error.
func Load(path string, logger *slog.Logger) (*Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Directory{
		logger:   logger.With("component", "directory"),
		path:     path,
		channels: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Info("Directory file not found, starting empty", "path", path)
			return d, nil
		}
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}

	if err := json.Unmarshal(data, &d.channels); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}

	d.logger.Info("Directory loaded", "path", path, "channels", len(d.channels))
	return d, nil
}

// All returns a snapshot of the directory. Readers never observe a
// partially applied upsert.
func (d *Directory) All() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snapshot := make(map[string]string, len(d.channels))
	for id, title := range d.channels {
		snapshot[id] = title
	}
	return snapshot
}

// Title returns the display name for a channel id, if known.
func (d *Directory) Title(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	title, ok := d.channels[id]
	return title, ok
}

// Upsert inserts or updates a channel entry and flushes the directory to
// disk. A write failure is logged and does not roll back the in-memory
// update.
func (d *Directory) Upsert(id, title string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.channels[id] = title

	if err := d.flush(); err != nil {
		d.logger.Error("Failed to persist directory", "path", d.path, "error", err)
	}
}

// flush writes the directory file. Callers must hold mu.
func (d *Directory) flush() error {
	data, err := json.MarshalIndent(d.channels, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode directory: %w", err)
	}
	if err := os.WriteFile(d.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write directory file: %w", err)
	}
	return nil
}
