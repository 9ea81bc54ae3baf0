// Package workspace locates and lays out the .stride directory a run
// operates on. Resolution climbs from the working directory toward the
// filesystem root, then falls back to a global workspace in $HOME, so a
// goal graph can be shared across a project or kept per-user.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DirName is the workspace directory created by `stride init`.
const DirName = ".stride"

// ErrNotFound is returned when no workspace exists between the working
// directory and the filesystem root, and none exists in $HOME either.
var ErrNotFound = errors.New("no .stride workspace found (run `stride init` first)")

// Workspace is a resolved .stride directory.
type Workspace struct {
	// Root is the directory containing the workspace dir.
	Root string
	// Dir is the workspace directory itself, Root/.stride.
	Dir string
}

// ConfigFile is the workspace configuration file path.
func (w Workspace) ConfigFile() string { return filepath.Join(w.Dir, "config.yaml") }

// DatabaseFile is the SQLite database path.
func (w Workspace) DatabaseFile() string { return filepath.Join(w.Dir, "stride.db") }

// DataFile is the flat-file store path for the given format.
func (w Workspace) DataFile(format string) string {
	if format == "" {
		format = "json"
	}
	return filepath.Join(w.Dir, "goals."+format)
}

// TemplatesDir holds prompt overrides.
func (w Workspace) TemplatesDir() string { return filepath.Join(w.Dir, "templates") }

// PolicyDir holds guardrail policy overrides.
func (w Workspace) PolicyDir() string { return filepath.Join(w.Dir, "policies") }

// CrashLogDir holds crash reports.
func (w Workspace) CrashLogDir() string { return filepath.Join(w.Dir, "crash_logs") }

// Find climbs from startDir toward the filesystem root looking for a .stride
// directory, falling back to $HOME/.stride.
func Find(fs afero.Fs, startDir string) (Workspace, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DirName)
		if ok, _ := afero.DirExists(fs, candidate); ok {
			return Workspace{Root: dir, Dir: candidate}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DirName)
		if ok, _ := afero.DirExists(fs, candidate); ok {
			return Workspace{Root: home, Dir: candidate}, nil
		}
	}

	return Workspace{}, ErrNotFound
}

// Init creates the workspace directory tree under root. Existing directories
// are left untouched, so re-running init is safe.
func Init(fs afero.Fs, root string) (Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workspace root: %w", err)
	}

	ws := Workspace{Root: abs, Dir: filepath.Join(abs, DirName)}
	for _, dir := range []string{ws.Dir, ws.TemplatesDir(), ws.PolicyDir(), ws.CrashLogDir()} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return Workspace{}, fmt.Errorf("create workspace directory %s: %w", dir, err)
		}
	}
	return ws, nil
}
