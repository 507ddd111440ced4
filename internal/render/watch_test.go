package render

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogctz/internal/shared/testutil"
)

func writeTemplates(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir, map[string]string{
		"base.html":  `{{template "content" .}}`,
		"index.html": `{{define "content"}}first{{end}}`,
	})

	r, err := New(Options{Templates: os.DirFS(dir), Logger: testutil.DiscardLogger()})
	require.NoError(t, err)

	var reloads atomic.Int32
	w := NewWatcher(dir, r, testutil.DiscardLogger(), func() { reloads.Add(1) })
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// wait for the watcher to register before editing
	time.Sleep(50 * time.Millisecond)
	writeTemplates(t, dir, map[string]string{"index.html": `{{define "content"}}second{{end}}`})

	require.Eventually(t, func() bool {
		out, err := r.Execute(context.Background(), "index.html", nil)
		return err == nil && string(out) == "second"
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	writeTemplates(t, dir, map[string]string{"about.html": `{{define "content"}}about{{end}}`})
	require.Eventually(t, func() bool { return r.Has("about.html") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_BrokenEditKeepsPages(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir, map[string]string{
		"base.html":  `{{template "content" .}}`,
		"index.html": `{{define "content"}}stable{{end}}`,
	})

	r, err := New(Options{Templates: os.DirFS(dir), Logger: testutil.DiscardLogger()})
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	w := NewWatcher(dir, r, logger, nil)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	writeTemplates(t, dir, map[string]string{"index.html": `{{define "content"}}{{end`})

	require.Eventually(t, func() bool { return logs.ContainsMessage("template reload failed") }, 2*time.Second, 10*time.Millisecond)

	out, err := r.Execute(context.Background(), "index.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "stable", string(out))
}

func TestWatcher_MissingDir(t *testing.T) {
	r, err := New(Options{Templates: testFS(), Logger: testutil.DiscardLogger()})
	require.NoError(t, err)

	w := NewWatcher(filepath.Join(t.TempDir(), "gone"), r, testutil.DiscardLogger(), nil)
	assert.Error(t, w.Run(context.Background()))
}
