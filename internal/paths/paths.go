// Package paths resolves the filesystem locations mcpd reads and writes:
// the mcpd.yml config file, the durable state file, and the daemon PID
// file. All three are project-root relative by default, but every lookup
// goes through a package-level function variable so tests can swap them
// for a t.TempDir() without touching the real filesystem.
package paths

import (
	"os"
	"path/filepath"
)

const (
	configFileName = "mcpd.yml"
	stateFileName  = ".mcpd-state.json"
	pidFileName    = ".mcpd.pid"
)

// getwdFn is overridden in tests to pin the project root.
var getwdFn = os.Getwd

// userHomeDirFn is overridden in tests.
var userHomeDirFn = os.UserHomeDir

// ConfigFile returns the path to mcpd.yml: ./mcpd.yml if present, else
// ~/.config/mcpd/config.yml.
func ConfigFile() string {
	if wd, err := getwdFn(); err == nil {
		candidate := filepath.Join(wd, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if home, err := userHomeDirFn(); err == nil {
		return filepath.Join(home, ".config", "mcpd", "config.yml")
	}
	return configFileName
}

// NewConfigFile returns the project-root path a fresh mcpd.yml should be
// scaffolded at (./mcpd.yml), regardless of whether one already exists —
// unlike ConfigFile, which falls back to the user-home config once the
// project-root file is missing.
func NewConfigFile() string {
	return projectRelative(configFileName)
}

// StateFile returns the path to the durable service-state registry,
// .mcpd-state.json at the project root.
func StateFile() string {
	return projectRelative(stateFileName)
}

// PidFile returns the path to the daemon PID file, .mcpd.pid at the
// project root.
func PidFile() string {
	return projectRelative(pidFileName)
}

func projectRelative(name string) string {
	wd, err := getwdFn()
	if err != nil {
		return name
	}
	return filepath.Join(wd, name)
}
