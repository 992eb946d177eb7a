package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestFileWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w, err := NewFileWatcher(path, func(string) { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for _, v := range []string{"v2", "v3", "v4"} {
		if err := os.WriteFile(path, []byte(v), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("onChange not called after write")
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst of writes should debounce to one call, got %d", n)
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w, err := NewFileWatcher(path, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("sibling write should be ignored, got %d calls", n)
	}
}

func TestFileWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	got := make(chan string, 4)
	w, err := NewFileWatcher(path, func(p string) { got <- p }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".policy.txt.swp")
	if err := os.WriteFile(tmp, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-got:
		if p != w.Path() {
			t.Errorf("got path %q, want %q", p, w.Path())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onChange not called after rename")
	}
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	w, err := NewFileWatcher(filepath.Join(t.TempDir(), "p.txt"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w, err := NewFileWatcher("/nonexistent/dir/policy.txt", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error watching a missing directory")
	}
}
