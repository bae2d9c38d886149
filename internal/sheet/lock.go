package sheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrLocked is returned when another live process holds the workbook lock
var ErrLocked = errors.New("workbook is locked by another run")

// LockInfo is the content of a workbook lock file
type LockInfo struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// Lock is a held workbook lock
type Lock struct {
	path string
}

// LockPath returns the lock file guarding the workbook at path
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// AcquireLock claims exclusive write access to the workbook at path. A lock
// left behind by a process that no longer exists on this host is replaced.
func AcquireLock(path string) (*Lock, error) {
	lockPath := LockPath(path)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, &PersistenceError{Op: "lock", Path: path, Err: err}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, &PersistenceError{Op: "lock", Path: path, Err: fmt.Errorf("failed to get hostname: %w", err)}
	}
	data, err := json.MarshalIndent(LockInfo{
		Holder:    "tasksheet",
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}, "", "  ")
	if err != nil {
		return nil, &PersistenceError{Op: "lock", Path: path, Err: err}
	}

	// Second attempt only happens after a stale lock was removed
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(lockPath)
				return nil, &PersistenceError{Op: "lock", Path: path, Err: werr}
			}
			return &Lock{path: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, &PersistenceError{Op: "lock", Path: path, Err: err}
		}

		if held, ok := readLock(lockPath); ok && isProcessAlive(held.PID, held.Hostname) {
			return nil, &PersistenceError{Op: "lock", Path: path, Err: fmt.Errorf("%w (PID %d on %s, started %s)",
				ErrLocked, held.PID, held.Hostname, held.StartedAt.Format(time.RFC3339))}
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, &PersistenceError{Op: "lock", Path: path, Err: fmt.Errorf("failed to remove stale lock: %w", err)}
		}
	}

	return nil, &PersistenceError{Op: "lock", Path: path, Err: ErrLocked}
}

// Release removes the lock file. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove workbook lock: %w", err)
	}
	l.path = ""
	return nil
}

// readLock parses a lock file; unreadable or corrupt locks count as stale
func readLock(lockPath string) (LockInfo, bool) {
	var info LockInfo
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return info, false
	}
	if json.Unmarshal(data, &info) != nil {
		return info, false
	}
	return info, true
}

// isProcessAlive reports whether pid exists on hostname. Processes on other
// hosts cannot be checked and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 checks the process without delivering; EPERM means it exists under another user
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
