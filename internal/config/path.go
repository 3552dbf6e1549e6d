package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDirEnv names a data directory that takes precedence over every
// platform default.
const DataDirEnv = "RENDEZQ_DATA_DIR"

// fallbackDataDir is used when no home directory can be resolved.
const fallbackDataDir = "./rendezq-data"

// DefaultDataDir returns where rendezq keeps its queue catalog when no
// directory is configured. RENDEZQ_DATA_DIR wins; otherwise a service
// install under /var/lib/rendezq is reused if present, then the per-user
// location of the host OS.
func DefaultDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return filepath.Clean(dir)
	}
	if isDir(systemDataDir) {
		return systemDataDir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return fallbackDataDir
	}
	return userDataDir(runtime.GOOS, home)
}

// systemDataDir is only used when an operator created it; rendezq never
// creates directories under /var/lib itself.
var systemDataDir = "/var/lib/rendezq"

func userDataDir(goos, home string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "rendezq")
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "rendezq")
		}
		return filepath.Join(home, "AppData", "Local", "rendezq")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "rendezq")
	}
	return filepath.Join(home, ".local", "share", "rendezq")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
