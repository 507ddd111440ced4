package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Roots holds the resolved template and static roots.
// A nil FS means the caller should fall back to embedded assets.
type Roots struct {
	TemplateDir string
	StaticDir   string
	Templates   fs.FS
	Static      fs.FS
}

// ExecutableDir returns the directory containing the running binary,
// with symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// ResolveRoots turns the configured template and static directories into
// absolute paths and directory filesystems. Relative directories resolve
// against BaseDir, or the executable directory when BaseDir is empty.
func (p PathsConfig) ResolveRoots() (*Roots, error) {
	roots := &Roots{}
	if p.TemplateDir == "" && p.StaticDir == "" {
		return roots, nil
	}

	base := p.BaseDir
	if base == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		base = dir
	}

	if p.TemplateDir != "" {
		dir, err := resolveDir(base, p.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("template root: %w", err)
		}
		roots.TemplateDir = dir
		roots.Templates = os.DirFS(dir)
	}

	if p.StaticDir != "" {
		dir, err := resolveDir(base, p.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("static root: %w", err)
		}
		roots.StaticDir = dir
		roots.Static = os.DirFS(dir)
	}

	return roots, nil
}

// resolveDir joins dir onto base when relative and checks it is a directory
func resolveDir(base, dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	return dir, nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
