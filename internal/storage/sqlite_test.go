package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/cheatsheet/internal/apperr"
)

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sheet-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	db := tempSQLite(t)
	ctx := context.Background()

	if _, err := db.Get(ctx, "doc"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing key err = %v", err)
	}
	if err := db.Set(ctx, "doc", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set(ctx, "doc", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := db.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("value = %q, want v2", got)
	}
	if err := db.Remove(ctx, "doc"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := db.Get(ctx, "doc"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after remove err = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "etcd"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
