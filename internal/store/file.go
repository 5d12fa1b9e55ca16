package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File is a Store backed by a single JSON object on disk. Every write
// rewrites the file through a temporary file and rename.
type File struct {
	path      string
	recovered string
	mu        sync.RWMutex
	values    map[string]string
}

// OpenFile loads the store at path, creating parent directories as needed.
// A missing file is an empty store and an unreadable file is an error. A
// file that does not parse is renamed to "<path>.corrupt-<unix>" and the
// store starts empty; Recovered reports where it went.
func OpenFile(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, &Error{Op: "open", Cause: fmt.Errorf("failed to create directory: %w", err)}
	}

	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, &Error{Op: "open", Cause: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, &Error{Op: "open", Cause: fmt.Errorf("failed to move corrupt %s aside: %w", path, renameErr)}
		}
		logger.Warn("state file is corrupt, starting empty", "path", path, "moved_to", aside, "error", err)
		f.values = make(map[string]string)
		f.recovered = aside
	}
	return f, nil
}

// Recovered returns where a corrupt state file was moved by OpenFile, or ""
// when the file loaded cleanly.
func (f *File) Recovered() string {
	return f.recovered
}

// Path returns the file backing the store.
func (f *File) Path() string {
	return f.path
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

// Set implements Store.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

// Remove implements Store.
func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	if !had {
		return nil
	}
	delete(f.values, key)
	if err := f.flush(); err != nil {
		f.values[key] = prev
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

// Close implements Store.
func (f *File) Close() error {
	return nil
}

// flush writes the current map. Callers hold f.mu.
func (f *File) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
