package xdg

import (
	"os"
	"path/filepath"
)

// Dirs resolves XDG Base Directory paths for one application.
type Dirs struct {
	app        string
	configHome string
	stateHome  string
}

// New reads the XDG environment with the standard fallbacks.
func New(app string) *Dirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = os.TempDir()
		}
	}

	d := &Dirs{app: app}

	d.configHome = os.Getenv("XDG_CONFIG_HOME")
	if d.configHome == "" {
		d.configHome = filepath.Join(homeDir, ".config")
	}

	d.stateHome = os.Getenv("XDG_STATE_HOME")
	if d.stateHome == "" {
		d.stateHome = filepath.Join(homeDir, ".local", "state")
	}

	return d
}

// ConfigFile is where the application looks for name when no explicit
// path was given.
func (d *Dirs) ConfigFile(name string) string {
	return filepath.Join(d.configHome, d.app, name)
}

// ReportDir holds archived grading reports.
func (d *Dirs) ReportDir() string {
	return filepath.Join(d.stateHome, d.app, "reports")
}

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
