package serverrun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rzbill/rendezq/internal/catalog"
	cfgpkg "github.com/rzbill/rendezq/internal/config"
	"github.com/rzbill/rendezq/internal/metrics"
	"github.com/rzbill/rendezq/internal/router"
	"github.com/rzbill/rendezq/internal/runtime"
	"github.com/rzbill/rendezq/internal/server"
	grpcserver "github.com/rzbill/rendezq/internal/server/grpc"
	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Ready, if set, is called with the bound queue address once the
	// listener is open.
	Ready func(addr string)
}

// Run starts the queue server and its side endpoints and blocks until the
// server has shut down, either through ctx, a signal or the SHUTDOWN method.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	fsync, err := pebblestore.ParseFsyncMode(cfg.Fsync)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = buildLogger(cfg.Log)
		defer func() { _ = logpkg.Close(procLogger) }()
	}
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{
		DataDir: filepath.Join(cfg.DataDir, "store"),
		Fsync:   fsync,
		Config:  cfg,
		Logger:  procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	m := rt.Metrics()
	logRestored(rt.Catalog(), procLogger)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	procLogger.Info("Starting rendezq server",
		logpkg.Str("addr", ln.Addr().String()),
		logpkg.Str("health", cfg.HealthAddr),
		logpkg.Str("metrics", cfg.MetricsAddr),
		logpkg.Int("max_sessions", cfg.MaxSessions),
		logpkg.Bool("persist_catalog", cfg.PersistCatalog),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Int("queues", len(rt.Registry().Names())),
	)

	var hs *grpcserver.Server
	if cfg.HealthAddr != "" {
		hs = grpcserver.New(grpcserver.Options{Checker: rt, ProbeInterval: cfg.HealthProbe(), Logger: procLogger})
	}

	var srv *server.Server
	rtr := router.New(router.Options{
		Registry:       rt.Registry(),
		Shutdown:       func() bool { return srv.Shutdown() },
		DefaultTimeout: cfg.DefaultTimeout(),
		Logger:         procLogger,
		Metrics:        m,
	})
	srv = server.New(server.Options{
		Handler:       rtr,
		MaxSessions:   cfg.MaxSessions,
		AdmissionWait: cfg.AdmissionWait(),
		DrainTimeout:  cfg.DrainTimeout(),
		Logger:        procLogger,
		Metrics:       m,
		OnShutdown: func() {
			if hs != nil {
				hs.MarkStopping()
			}
		},
	})

	// Side endpoints live as long as the queue server.
	auxCtx, auxCancel := context.WithCancel(sctx)
	defer auxCancel()

	var g errgroup.Group
	g.Go(func() error {
		defer auxCancel()
		return srv.Serve(sctx, ln)
	})
	if hs != nil {
		g.Go(func() error {
			if err := hs.ListenAndServe(auxCtx, cfg.HealthAddr); err != nil {
				srv.Shutdown()
				return fmt.Errorf("health: %w", err)
			}
			return nil
		})
	}
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := serveMetrics(auxCtx, cfg.MetricsAddr, m, procLogger); err != nil {
				srv.Shutdown()
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}
	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}

	err = g.Wait()
	if hs != nil {
		hs.Close()
	}
	m.LogSnapshot(procLogger)
	return err
}

// logRestored reports the catalogued queues brought back at startup.
func logRestored(c *catalog.Catalog, logger logpkg.Logger) {
	if c == nil {
		return
	}
	entries, err := c.Entries()
	if err != nil {
		logger.Warn("list catalog", logpkg.Err(err))
		return
	}
	for _, e := range entries {
		created := "unknown"
		if e.CreatedAtMs > 0 {
			created = time.UnixMilli(e.CreatedAtMs).UTC().Format(time.RFC3339)
		}
		logger.Info("queue restored", logpkg.Str("queue", e.Name), logpkg.Str("created_at", created))
	}
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger logpkg.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	hsrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- hsrv.ListenAndServe() }()
	logger.Info("metrics endpoint listening", logpkg.Str("addr", addr))

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return hsrv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildLogger applies cfg, falling back to a text logger at the parsed
// level when the config is unusable.
func buildLogger(cfg logpkg.Config) logpkg.Logger {
	l, err := logpkg.ApplyConfig(&cfg)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}
