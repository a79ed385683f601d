// Package paths resolves where ppi looks for its configuration, following
// XDG conventions.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform config root.
const AppName = "ppi"

// ConfigFileName is the configuration file name inside the config directory.
const ConfigFileName = "config.toml"

// Environment variables that override the default locations.
const (
	EnvConfigFile = "PPI_CONFIG"
	EnvConfigDir  = "PPI_CONFIG_DIR"
)

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// OSEnv reads from the process environment.
type OSEnv struct{}

// Get returns the value of the environment variable key.
func (OSEnv) Get(key string) string {
	return os.Getenv(key)
}

// IsDarwin returns true if the current OS is macOS.
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// ResolveConfigFile returns the path of the configuration document.
//
// Resolution order:
//  1. PPI_CONFIG env var (full file path)
//  2. <config dir>/config.toml, see ResolveConfigDir
//
// The homeDir parameter must be an absolute path to the user's home directory.
// This function does not touch the filesystem.
func ResolveConfigFile(env Env, homeDir string) string {
	return ResolveConfigFileWithOS(env, homeDir, IsDarwin())
}

// ResolveConfigFileWithOS is like ResolveConfigFile but accepts an explicit OS flag for testing.
func ResolveConfigFileWithOS(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get(EnvConfigFile); v != "" {
		return v
	}
	return filepath.Join(ResolveConfigDirWithOS(env, homeDir, isDarwin), ConfigFileName)
}

// ResolveConfigDir returns the directory holding config.toml.
//
// Resolution order:
//  1. PPI_CONFIG_DIR env var (if set)
//  2. macOS: ~/Library/Application Support/ppi
//  3. XDG_CONFIG_HOME/ppi (if set)
//  4. ~/.config/ppi
//
// ~ inside env vars is treated as literal (not expanded).
func ResolveConfigDir(env Env, homeDir string) string {
	return ResolveConfigDirWithOS(env, homeDir, IsDarwin())
}

// ResolveConfigDirWithOS is like ResolveConfigDir but accepts an explicit OS flag for testing.
func ResolveConfigDirWithOS(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get(EnvConfigDir); v != "" {
		return v
	}
	if isDarwin {
		return filepath.Join(homeDir, "Library", "Application Support", AppName)
	}
	if v := env.Get("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, AppName)
	}
	return filepath.Join(homeDir, ".config", AppName)
}

// ExpandHome replaces a leading "~/" (or a lone "~") with homeDir.
// Other paths are returned unchanged.
func ExpandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
