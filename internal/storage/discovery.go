package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDatabasePath is the history database relative to the working directory
const DefaultDatabasePath = ".tasksheet/history.db"

// DiscoverDatabase resolves the history database path.
//
// TASKSHEET_DB_PATH wins when set, and may be ":memory:" for tests. Otherwise
// configured is used, falling back to DefaultDatabasePath. Relative paths are
// resolved against the working directory only; parent directories are not
// searched, so a nested checkout never writes into an enclosing project's
// history.
func DiscoverDatabase(configured string) (string, error) {
	if dbPath := os.Getenv("TASKSHEET_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	path := configured
	if path == "" {
		path = DefaultDatabasePath
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return filepath.Join(dir, path), nil
}
