// Package workspace manages the ephemeral per-run directory that holds
// one run's generated sample.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Workspace is an ephemeral directory exclusive to one test run
type Workspace struct {
	Root string
}

// Create makes a fresh workspace directory under baseDir, named after the
// SDK and a short random suffix so concurrent runs never collide.
func Create(baseDir, sdk string) (*Workspace, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace base dir: %w", err)
	}

	suffix := uuid.NewString()[:8]
	root := filepath.Join(baseDir, fmt.Sprintf("%s-%s", sdk, suffix))
	if err := os.Mkdir(root, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	return &Workspace{Root: root}, nil
}

// Files returns all regular files under the workspace as relative paths,
// skipping build output and dependency directories.
func (w *Workspace) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "target", "node_modules", "__pycache__", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Contains reports whether a workspace-relative file exists
func (w *Workspace) Contains(rel string) bool {
	info, err := os.Stat(filepath.Join(w.Root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

// ReadFile reads a workspace-relative file
func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.Root, filepath.FromSlash(rel)))
}

// Path resolves a workspace-relative path to an absolute one
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.Root, filepath.FromSlash(rel))
}

// Remove deletes the workspace directory tree. Best effort; a run that
// keeps its workspace simply never calls it.
func (w *Workspace) Remove() error {
	if w.Root == "" || w.Root == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove %q", w.Root)
	}
	return os.RemoveAll(w.Root)
}

// ShortName returns the workspace directory basename for display
func (w *Workspace) ShortName() string {
	return filepath.Base(strings.TrimSuffix(w.Root, string(filepath.Separator)))
}
