package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PolicyFile is one loaded Rego source file. Path doubles as the Rego module
// name when the engine compiles it.
type PolicyFile struct {
	Path string `json:"path"`
	// Name is the base name without the .rego extension.
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Loader collects .rego files from the workspace policies directory. It
// reads through an afero.Fs so tests can run on an in-memory filesystem.
type Loader struct {
	fs      afero.Fs
	baseDir string
}

// NewLoader creates a loader over the given filesystem and directory.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{fs: fs, baseDir: baseDir}
}

// LoadAll returns every .rego file under the directory, recursively. A
// missing directory is not an error: it means no policies are configured.
func (l *Loader) LoadAll() ([]*PolicyFile, error) {
	if _, err := l.fs.Stat(l.baseDir); err != nil {
		if os.IsNotExist(err) {
			return []*PolicyFile{}, nil
		}
		return nil, fmt.Errorf("stat policies directory: %w", err)
	}

	var found []*PolicyFile
	walk := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}
		src, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("read policy %s: %w", path, err)
		}
		found = append(found, &PolicyFile{
			Path:    path,
			Name:    strings.TrimSuffix(filepath.Base(path), ".rego"),
			Content: string(src),
		})
		return nil
	}
	if err := afero.Walk(l.fs, l.baseDir, walk); err != nil {
		return nil, fmt.Errorf("scan policies directory: %w", err)
	}
	return found, nil
}
