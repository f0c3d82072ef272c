package ux

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the Gemora home directory.
const HomeEnv = "GEMORA_HOME"

// PathDefaults locates the files Gemora keeps under its home directory
type PathDefaults struct {
	HomeDir string
}

// NewPathDefaults resolves the home directory from GEMORA_HOME, falling back
// to ~/.gemora, then to .gemora in the working directory.
func NewPathDefaults() *PathDefaults {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return &PathDefaults{HomeDir: dir}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return &PathDefaults{HomeDir: filepath.Join(home, ".gemora")}
	}
	return &PathDefaults{HomeDir: ".gemora"}
}

// ConfigFile returns the path to config.yaml
func (pd *PathDefaults) ConfigFile() string {
	return filepath.Join(pd.HomeDir, "config.yaml")
}

// SessionFile returns the default path for file and encrypted session storage
func (pd *PathDefaults) SessionFile() string {
	return filepath.Join(pd.HomeDir, "session.json")
}

// SessionDB returns the default path for SQLite session storage
func (pd *PathDefaults) SessionDB() string {
	return filepath.Join(pd.HomeDir, "session.db")
}

// SessionPath returns the default storage path for backend
func (pd *PathDefaults) SessionPath(backend string) string {
	if backend == "sqlite" {
		return pd.SessionDB()
	}
	return pd.SessionFile()
}

// EnsureHome creates the home directory with owner-only permissions
func (pd *PathDefaults) EnsureHome() error {
	if err := os.MkdirAll(pd.HomeDir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", pd.HomeDir, err)
	}
	return nil
}
