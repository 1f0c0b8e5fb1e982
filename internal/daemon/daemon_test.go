package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/config"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.MetricsListen = ""
	d, err := New(cfg)
	require.NoError(t, err)

	var builds atomic.Int32
	d.build = func(context.Context, string) { builds.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.debounceLoop(ctx)
	}()

	// A burst of triggers inside the quiet window yields one build.
	for range 5 {
		d.triggers <- "fs"
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return builds.Load() == 1 },
		5*time.Second, 20*time.Millisecond)

	// A later trigger starts a new window and a second build.
	d.triggers <- "scheduled"
	require.Eventually(t, func() bool { return builds.Load() == 2 },
		5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestWatcherSkipsGitExcludedAndOutputPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	cfg := config.Default()
	cfg.Project.RepoPath = root
	cfg.Project.Exclude = []string{"vendor/**"}
	cfg.Site.OutDir = filepath.Join(root, "out", "wiki")
	cfg.Slides.OutDir = filepath.Join(root, "out", "slides")

	triggers := make(chan string, 1)
	w, err := newRepoWatcher(cfg, triggers)
	require.NoError(t, err)
	defer w.close()

	assert.False(t, w.skipPath(filepath.Join(root, "src", "main.go")))
	assert.True(t, w.skipPath(filepath.Join(root, ".git", "HEAD")))
	assert.True(t, w.skipPath(filepath.Join(root, "vendor", "lib", "x.go")))
	assert.True(t, w.skipPath(filepath.Join(root, "out", "wiki", "src", "overview.md")))
	assert.True(t, w.skipPath(filepath.Join(root, "out", "slides", "slides.md")))

	assert.True(t, w.skipDir(filepath.Join(root, ".git")))
	assert.True(t, w.skipDir(filepath.Join(root, "out", "wiki")))
	assert.False(t, w.skipDir(filepath.Join(root, "src")))
}

func TestWatcherTriggersOnWrite(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Project.RepoPath = root
	cfg.Site.OutDir = filepath.Join(t.TempDir(), "wiki")
	cfg.Slides.OutDir = filepath.Join(t.TempDir(), "slides")

	triggers := make(chan string, 4)
	w, err := newRepoWatcher(cfg, triggers)
	require.NoError(t, err)
	defer w.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	select {
	case trigger := <-triggers:
		assert.Equal(t, "fs", trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("no trigger after file write")
	}
}
