package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/cheatsheet/internal/sheetservice"
	"github.com/starford/cheatsheet/internal/testutil"
)

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

type countingReloader struct{ calls atomic.Int32 }

func (c *countingReloader) Reload(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func TestWatcher_ExternalEditReloads(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc, err := sheetservice.New(context.Background(), store, sheetservice.WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatal(err)
	}
	path, err := store.Path(svc.Key())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, path, svc, testutil.Logger(), 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	edited := `[[[{"type":"def","content":"edited elsewhere"}],[],[]]]`
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return svc.Document().BlockCount() == 1
	}, "external edit not reloaded")
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.json")
	r := &countingReloader{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, path, r, testutil.Logger(), 300*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(path, []byte("[]"), 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return r.calls.Load() >= 1
	}, "reload never fired")
	time.Sleep(500 * time.Millisecond)
	if n := r.calls.Load(); n != 1 {
		t.Errorf("reload fired %d times, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	r := &countingReloader{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, filepath.Join(dir, "sheet.json"), r, testutil.Logger(), 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := r.calls.Load(); n != 0 {
		t.Errorf("reload fired %d times for an unrelated file", n)
	}
}
