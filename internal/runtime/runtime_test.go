package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/rendezq/internal/config"
	"github.com/rzbill/rendezq/internal/metrics"
	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if ok, err := rt.db.Has(healthKey); err != nil || ok {
		t.Fatalf("health check left its key behind: ok=%v err=%v", ok, err)
	}
	if rt.Metrics() == nil {
		t.Fatalf("runtime should create a metrics set")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err == nil {
		t.Fatalf("expected health failure after close")
	}
}

func TestCatalogSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	m := metrics.New()
	rt, err := Open(Options{DataDir: dir, Config: cfgpkg.Default(), Metrics: m})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, name := range []string{"orders", "jobs"} {
		if _, err := rt.Registry().Create(context.Background(), name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if got := m.Registry().Get(metrics.StorageWrite); got == nil {
		t.Fatalf("storage writes not observed")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt, err = Open(Options{DataDir: dir, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	names := rt.Registry().Names()
	if len(names) != 2 || names[0] != "jobs" || names[1] != "orders" {
		t.Fatalf("restored names %v", names)
	}
}

func TestInMemoryOnly(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.PersistCatalog = false
	rt, err := Open(Options{Config: cfg})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if rt.Catalog() != nil {
		t.Fatalf("catalog should be disabled")
	}
	if _, err := rt.Registry().Create(context.Background(), "q"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestPersistRequiresDataDir(t *testing.T) {
	if _, err := Open(Options{Config: cfgpkg.Default()}); err == nil {
		t.Fatalf("expected error without DataDir")
	}
}
