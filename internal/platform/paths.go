// Package platform resolves per-user file locations for the board.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// defaultAppName names the config and data directories when no override is given.
const defaultAppName = "join"

// Paths are the on-disk locations one app instance uses.
type Paths struct {
	ConfigPath  string
	DataDir     string
	DBPath      string
	LogDir      string
	SnapshotDir string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// Env is the host state paths are derived from.
type Env struct {
	GOOS          string
	Getenv        func(string) string
	UserConfigDir string
	UserHomeDir   string
}

// HostEnv reads Env from the running process.
func HostEnv() (Env, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Env{}, fmt.Errorf("user config dir: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("user home dir: %w", err)
	}
	return Env{GOOS: runtime.GOOS, Getenv: os.Getenv, UserConfigDir: configDir, UserHomeDir: home}, nil
}

// DefaultPaths resolves paths for the default app name on this host.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths for opts on this host.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	env, err := HostEnv()
	if err != nil {
		return Paths{}, err
	}
	return Resolve(env, opts)
}

// AppDirName returns the directory name for opts; dev mode appends "-dev".
func AppDirName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = defaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return name
}

// Resolve derives every path from env. Linux honors the XDG base directories,
// Windows uses APPDATA and LOCALAPPDATA, and other systems use the user config dir.
func Resolve(env Env, opts Options) (Paths, error) {
	if strings.TrimSpace(env.UserConfigDir) == "" {
		return Paths{}, errors.New("empty user config dir")
	}
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	lookup := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	configBase := env.UserConfigDir
	dataBase := env.UserConfigDir
	stateBase := ""
	switch env.GOOS {
	case "linux":
		if env.UserHomeDir == "" {
			return Paths{}, errors.New("empty user home dir")
		}
		configBase = lookup("XDG_CONFIG_HOME", configBase)
		dataBase = lookup("XDG_DATA_HOME", filepath.Join(env.UserHomeDir, ".local", "share"))
		stateBase = lookup("XDG_STATE_HOME", filepath.Join(env.UserHomeDir, ".local", "state"))
	case "windows":
		configBase = lookup("APPDATA", configBase)
		dataBase = lookup("LOCALAPPDATA", dataBase)
	}

	name := AppDirName(opts)
	dataDir := filepath.Join(dataBase, name)
	logDir := filepath.Join(dataDir, "log")
	if stateBase != "" {
		logDir = filepath.Join(stateBase, name, "log")
	}
	return Paths{
		ConfigPath:  filepath.Join(configBase, name, "config.toml"),
		DataDir:     dataDir,
		DBPath:      filepath.Join(dataDir, name+".db"),
		LogDir:      logDir,
		SnapshotDir: filepath.Join(dataDir, "snapshots"),
	}, nil
}

// EnsureDirs creates the data, log and snapshot directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.LogDir, p.SnapshotDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
