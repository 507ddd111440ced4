package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRoots(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "templates"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "static", "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "templates", "base.html"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "static", "css", "site.css"), []byte("y"), 0644))

	t.Run("empty roots select embedded assets", func(t *testing.T) {
		roots, err := PathsConfig{}.ResolveRoots()
		require.NoError(t, err)
		assert.Nil(t, roots.Templates)
		assert.Nil(t, roots.Static)
	})

	t.Run("relative roots resolve against base dir", func(t *testing.T) {
		roots, err := PathsConfig{
			BaseDir:     base,
			TemplateDir: "templates",
			StaticDir:   "static",
		}.ResolveRoots()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(base, "templates"), roots.TemplateDir)
		assert.Equal(t, filepath.Join(base, "static"), roots.StaticDir)

		_, err = fs.Stat(roots.Templates, "base.html")
		assert.NoError(t, err)
		_, err = fs.Stat(roots.Static, "css/site.css")
		assert.NoError(t, err)
	})

	t.Run("absolute root ignores base dir", func(t *testing.T) {
		roots, err := PathsConfig{
			BaseDir:     "/does/not/matter",
			TemplateDir: filepath.Join(base, "templates"),
		}.ResolveRoots()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "templates"), roots.TemplateDir)
		assert.Nil(t, roots.Static)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := PathsConfig{BaseDir: base, TemplateDir: "nope"}.ResolveRoots()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "template root")
	})

	t.Run("file instead of directory fails", func(t *testing.T) {
		_, err := PathsConfig{BaseDir: base, StaticDir: "templates/base.html"}.ResolveRoots()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.True(t, FileExists(dir))
}
