package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]Change
}

func (r *recorder) cb(changes []Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changes)
}

func (r *recorder) all() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Change
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func has(changes []Change, kind, path string) bool {
	for _, c := range changes {
		if c.Kind == kind && c.Path == path {
			return true
		}
	}
	return false
}

func startWatch(t *testing.T, dir string, debounce time.Duration) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, dir, debounce, logger, rec.cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_NewFileReported(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir, 50*time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return has(rec.all(), "created", "new.md")
	}, "create not reported")
}

func TestWatch_IgnoresNonNotesAndHidden(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir, 50*time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".scratch.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "real.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return has(rec.all(), "created", "real.md")
	}, "note not reported")
	for _, c := range rec.all() {
		if c.Path != "real.md" {
			t.Errorf("unexpected change %+v", c)
		}
	}
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir, 300*time.Millisecond)

	p := filepath.Join(dir, "burst.md")
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(p, []byte{byte('a' + i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rec.batchCount() > 0
	}, "burst not flushed")
	time.Sleep(400 * time.Millisecond)

	if n := rec.batchCount(); n != 1 {
		t.Errorf("batches = %d, want 1", n)
	}
	changes := rec.all()
	if len(changes) != 1 || changes[0].Path != "burst.md" || changes[0].Kind != "created" {
		t.Errorf("changes = %+v, want single created burst.md", changes)
	}
}

func TestWatch_NewDirectoryAndDelete(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir, 50*time.Millisecond)

	sub := filepath.Join(dir, "projects")
	_ = os.Mkdir(sub, 0o755)
	time.Sleep(150 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "x.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return has(rec.all(), "created", "projects/x.md")
	}, "file in new dir not reported")

	_ = os.Remove(filepath.Join(sub, "x.md"))
	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return has(rec.all(), "deleted", "projects/x.md")
	}, "delete not reported")
}
