package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/rendezq/internal/cmd/client"
	serverrun "github.com/rzbill/rendezq/internal/cmd/server"
	cfgpkg "github.com/rzbill/rendezq/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rendezq",
		Short:         "rendezq rendezvous queue server and CLI",
		Long:          "rendezq is a single-binary rendezvous queue. This CLI runs the server and talks to it.",
		SilenceUsage:  true,
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverCmd.AddCommand(newServerStartCommand())
	rootCmd.AddCommand(serverCmd)

	for _, c := range clientcmd.NewRoot().Commands() {
		rootCmd.AddCommand(c)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerStartCommand() *cobra.Command {
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the rendezq server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := serverrun.Run(context.Background(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	f := startCmd.Flags()
	f.String("config", os.Getenv("RENDEZQ_CONFIG"), "Config file (.json, .toml, .yaml)")
	f.String("listen", "", "Queue protocol listen address")
	f.String("health", "", "gRPC health listen address (empty disables)")
	f.String("metrics", "", "Prometheus metrics listen address (empty disables)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.Int("max-sessions", 0, "Concurrent sessions admitted")
	f.Int64("default-timeout-ms", 0, "Wait budget for requests without a timeout header")
	f.Bool("memory", false, "Keep the queue catalog in memory only")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json (default text)")
	return startCmd
}

// loadConfig layers defaults, the config file, RENDEZQ_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfg, err
	}
	cfgpkg.FromEnv(&cfg)

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("listen", &cfg.ListenAddr)
	str("health", &cfg.HealthAddr)
	str("metrics", &cfg.MetricsAddr)
	str("data-dir", &cfg.DataDir)
	str("fsync", &cfg.Fsync)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if f.Changed("max-sessions") {
		cfg.MaxSessions, _ = f.GetInt("max-sessions")
	}
	if f.Changed("default-timeout-ms") {
		cfg.DefaultTimeoutMs, _ = f.GetInt64("default-timeout-ms")
	}
	if memory, _ := f.GetBool("memory"); memory {
		cfg.PersistCatalog = false
	}
	return cfg, cfg.Validate()
}
