package esri

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// Loader implements domain.GridLoader for .asc files below a root directory.
type Loader struct {
	root string
}

// NewLoader creates a Loader resolving request paths against root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load reads the grid at path, relative to the loader root. Paths that
// would escape the root are rejected.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(path) {
		return nil, fmt.Errorf("grid path %q is outside the grid root", path)
	}

	f, err := os.Open(filepath.Join(l.root, path))
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load grid %s: %w", path, err)
	}
	return g, nil
}

// WriteFile writes g to path, creating or truncating it.
func WriteFile(path string, g *domain.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid file: %w", err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return fmt.Errorf("write grid %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile reads the grid at an absolute or working-directory path.
func ReadFile(path string) (*domain.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read grid %s: %w", path, err)
	}
	return g, nil
}
