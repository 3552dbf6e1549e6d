package catalog

import (
	"reflect"
	"testing"
	"time"

	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
)

func openDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func TestEnsureIdempotent(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	c := New(db)

	e1, err := c.Ensure("orders")
	if err != nil {
		t.Fatalf("ensure1: %v", err)
	}
	c.now = func() time.Time { return time.Unix(0, 0) }
	e2, err := c.Ensure("orders")
	if err != nil {
		t.Fatalf("ensure2: %v", err)
	}
	if e1 != e2 {
		t.Fatalf("not idempotent: %+v vs %+v", e1, e2)
	}
}

func TestNamesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	c := New(db)
	for _, n := range []string{"b", "a", "c"} {
		if err := c.Add(n); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openDB(t, dir)
	t.Cleanup(func() { _ = db.Close() })
	names, err := New(db).Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v want %v", names, want)
	}
}

func TestCorruptRecordStillListed(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Set(queueKey("broken"), []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	names, err := New(db).Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"broken"}) {
		t.Fatalf("got %v", names)
	}
}
