package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dest := t.TempDir()

	lock, err := Acquire(dest)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if lock.Path() != filepath.Join(dest, LockFileName) {
		t.Errorf("Path() = %q, want lock file inside destination", lock.Path())
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Errorf("lock file not created: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestAcquire_SecondHolderRejected(t *testing.T) {
	dest := t.TempDir()

	first, err := Acquire(dest)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer first.Release()

	if _, err := Acquire(dest); err == nil {
		t.Fatal("second Acquire() on a held lock should fail")
	}
}

func TestAcquire_AfterRelease(t *testing.T) {
	dest := t.TempDir()

	first, err := Acquire(dest)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	second, err := Acquire(dest)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	second.Release()
}

func TestRelease_NilSafe(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestLockFileIsDotfile(t *testing.T) {
	if LockFileName[0] != '.' {
		t.Errorf("LockFileName = %q, must be a dotfile so orphan sweeps ignore it", LockFileName)
	}
}
