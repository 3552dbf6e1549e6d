// Package runtime wires storage, config and the queue registry into a
// single rendezq process. It exposes Open/Close, a health check and accessors
// for the servers.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	q, _ := rt.Registry().Create(context.Background(), "orders")
//	q.Put(json.RawMessage(`"hello"`))
package runtime
