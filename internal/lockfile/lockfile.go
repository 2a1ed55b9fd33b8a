// Package lockfile guards a SQLite database file against concurrent CrisisSense processes.
//
// The lock is an flock(2) on a sidecar file next to the database, so the kernel
// drops it when the owning process exits, cleanly or not.
package lockfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Suffix is appended to the database path to name its lock file.
const Suffix = ".lock"

// ErrHeld is wrapped by HeldError when another process owns the lock.
var ErrHeld = errors.New("database lock held by another process")

// Holder describes the process recorded in a lock file.
type Holder struct {
	PID     int
	Started time.Time
}

func (h Holder) String() string {
	if h.PID == 0 {
		return "unknown process"
	}
	s := "pid " + strconv.Itoa(h.PID)
	if !h.Started.IsZero() {
		s += " since " + h.Started.Format(time.RFC3339)
	}
	return s
}

// HeldError reports a lock owned by another process.
type HeldError struct {
	Path   string
	Holder Holder
	// Stale is set when the recorded PID no longer runs; the flock is still held,
	// typically by a child that inherited the descriptor.
	Stale bool
	Err   error
}

func (e *HeldError) Error() string {
	msg := fmt.Sprintf("another CrisisSense instance is using this database (lock %s, %s)", e.Path, e.Holder)
	if e.Stale {
		msg += "; recorded process is not running"
	}
	return msg
}

func (e *HeldError) Unwrap() []error { return []error{ErrHeld, e.Err} }

// Lock is an acquired database lock.
type Lock struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// PathFor returns the lock file path guarding dbPath.
func PathFor(dbPath string) string {
	return filepath.Clean(dbPath) + Suffix
}

// Acquire takes an exclusive, non-blocking lock for the database at dbPath.
// The parent directory is created when missing.
func Acquire(dbPath string) (*Lock, error) {
	path := PathFor(dbPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	// O_TRUNC would wipe the holder record before we know the lock is ours.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		holder, _ := readHolder(path)
		held := &HeldError{Path: path, Holder: holder, Err: err}
		held.Stale = holder.PID > 0 && !processAlive(holder.PID)
		slog.Error("lockfile.Acquire: database is locked", "lock_path", path, "holder", holder.String(), "stale", held.Stale)
		return nil, held
	}

	if err := writeHolder(file, Holder{PID: os.Getpid(), Started: time.Now().UTC()}); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("failed to record lock holder in %s: %w", path, err)
	}

	slog.Info("lockfile.Acquire: database lock acquired", "lock_path", path, "pid", os.Getpid())
	return &Lock{file: file, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and removes the lock file. Calling it more than once is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	// Remove before unlocking so a waiting process never sees our stale record.
	var errs []error
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove lock file: %w", err))
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		errs = append(errs, fmt.Errorf("unlock: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close lock file: %w", err))
	}
	l.file = nil

	if err := errors.Join(errs...); err != nil {
		slog.Warn("Lock.Release: release incomplete", "lock_path", l.path, "error", err)
		return err
	}
	slog.Debug("Lock.Release: database lock released", "lock_path", l.path)
	return nil
}

func writeHolder(f *os.File, h Holder) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(formatHolder(h)), 0); err != nil {
		return err
	}
	return f.Sync()
}

func readHolder(path string) (Holder, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Holder{}, false
	}
	return parseHolder(string(data))
}

func formatHolder(h Holder) string {
	return fmt.Sprintf("pid=%d started=%s\n", h.PID, h.Started.Format(time.RFC3339))
}

// parseHolder reads "pid=N started=RFC3339" records; unknown fields are ignored.
func parseHolder(content string) (Holder, bool) {
	var h Holder
	for _, field := range strings.Fields(content) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if pid, err := strconv.Atoi(value); err == nil && pid > 0 {
				h.PID = pid
			}
		case "started":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				h.Started = t
			}
		}
	}
	return h, h.PID > 0
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
