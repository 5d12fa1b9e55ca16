// Package store provides the string-keyed persistent key-value stores that
// hold session state between runs.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store is a string-keyed, string-valued persistent map. Implementations must
// be safe for use by one writer and concurrent readers.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases resources held by the store.
	Close() error
}

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend     Backend
	Path        string // file and sqlite backends
	DatabaseURL string // postgres backend
	RedisURL    string // redis backend
	Logger      *slog.Logger
}

// DefaultDir is where file-based stores live when no path is configured.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".resume_matcher"
	}
	return filepath.Join(home, ".resume_matcher")
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		path := opts.Path
		if path == "" {
			path = filepath.Join(DefaultDir(), "state.json")
		}
		return OpenFile(path, opts.Logger)
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = filepath.Join(DefaultDir(), "state.db")
		}
		return OpenSQLite(ctx, path)
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store requires a database URL")
		}
		return ConnectPostgres(ctx, opts.DatabaseURL)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis store requires a redis URL")
		}
		return ConnectRedis(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
