// Package pebblestore is a small wrapper around Pebble with an fsync policy,
// prefix scans and a metrics hook.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("queue/orders"), []byte("{}"))
//	_ = db.ScanPrefix([]byte("queue/"), func(k, v []byte) error { return nil })
package pebblestore
