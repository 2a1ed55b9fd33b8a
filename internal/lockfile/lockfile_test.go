package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquire_WritesHolder(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "crisissense.db")

	lock, err := Acquire(dbPath)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	if lock.Path() != dbPath+Suffix {
		t.Errorf("lock path = %q, want %q", lock.Path(), dbPath+Suffix)
	}
	data, err := os.ReadFile(lock.Path())
	if err != nil {
		t.Fatalf("failed to read lock file: %v", err)
	}
	holder, ok := parseHolder(string(data))
	if !ok {
		t.Fatalf("lock file has no holder record: %q", data)
	}
	if holder.PID != os.Getpid() {
		t.Errorf("holder pid = %d, want %d", holder.PID, os.Getpid())
	}
	if holder.Started.IsZero() {
		t.Error("expected start time in holder record")
	}
}

func TestAcquire_Conflict(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "crisissense.db")

	first, err := Acquire(dbPath)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dbPath)
	if err == nil {
		second.Release()
		t.Fatal("second Acquire should fail while the lock is held")
	}
	if !errors.Is(err, ErrHeld) {
		t.Errorf("expected ErrHeld, got %v", err)
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected *HeldError, got %T", err)
	}
	if held.Holder.PID != os.Getpid() {
		t.Errorf("holder pid = %d, want %d", held.Holder.PID, os.Getpid())
	}
	if held.Stale {
		t.Error("our own process must not be reported as stale")
	}
	if !strings.Contains(err.Error(), held.Path) {
		t.Errorf("error should name the lock path: %s", err)
	}

	// The failed attempt must not clobber the holder record.
	data, _ := os.ReadFile(first.Path())
	if h, ok := parseHolder(string(data)); !ok || h.PID != os.Getpid() {
		t.Errorf("holder record changed after failed Acquire: %q", data)
	}
}

func TestRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "crisissense.db")

	lock, err := Acquire(dbPath)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed, stat err = %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should be a no-op: %v", err)
	}

	again, err := Acquire(dbPath)
	if err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	again.Release()
}

func TestParseHolder(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		content string
		want    Holder
		ok      bool
	}{
		{"round trip", formatHolder(Holder{PID: 4242, Started: started}), Holder{PID: 4242, Started: started}, true},
		{"pid only", "pid=17\n", Holder{PID: 17}, true},
		{"extra fields", "host=a pid=9 started=bad", Holder{PID: 9}, true},
		{"no pid", "started=2024-03-01T12:00:00Z", Holder{Started: started}, false},
		{"invalid pid", "pid=abc", Holder{}, false},
		{"negative pid", "pid=-3", Holder{}, false},
		{"empty", "", Holder{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseHolder(tt.content)
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
			if got.PID != tt.want.PID || !got.Started.Equal(tt.want.Started) {
				t.Errorf("parseHolder(%q) = %+v, want %+v", tt.content, got, tt.want)
			}
		})
	}
}

func TestHolderString(t *testing.T) {
	if s := (Holder{}).String(); s != "unknown process" {
		t.Errorf("zero holder = %q", s)
	}
	h := Holder{PID: 12, Started: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	if s := h.String(); s != "pid 12 since 2024-03-01T12:00:00Z" {
		t.Errorf("holder = %q", s)
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
}
