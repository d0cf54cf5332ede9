package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/confirm"
	"github.com/starford/cheatsheet/internal/sheetservice"
)

func TestBuildWiresServiceToBroker(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.FS.Path = t.TempDir()

	c, err := Open(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	file, err := c.WatchFile()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(file) != cfg.Storage.Key+".json" {
		t.Errorf("watch file = %s", file)
	}

	ch := c.Broker.Subscribe()
	if _, err := c.Service.AddBlock(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), `"op":"add_block"`) {
			t.Errorf("frame = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}
}

func TestBuildSQLiteHasNoWatchFile(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "sheet.db")

	c, err := Open(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if file, err := c.WatchFile(); err != nil || file != "" {
		t.Errorf("WatchFile = %q, %v", file, err)
	}
}

func TestOpenRequiresConfig(t *testing.T) {
	if _, err := Open(context.Background(), nil, io.Discard); err == nil {
		t.Error("expected error without config")
	}
}

func TestOpenResetsMalformedSheet(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.Storage.FS.Path = t.TempDir()
	file := filepath.Join(cfg.Storage.FS.Path, cfg.Storage.Key+".json")
	if err := os.WriteFile(file, []byte(`{"broken":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(ctx, cfg, io.Discard); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}

	c, err := Open(ctx, cfg, io.Discard, sheetservice.WithRecovery())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if ok, err := c.Service.Reset(ctx, confirm.Always); err != nil || !ok {
		t.Fatalf("reset: ok=%v err=%v", ok, err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[[[],[],[]]]` {
		t.Errorf("stored after reset = %s", data)
	}
}
