package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "repowiki.toml"))
	require.NoError(t, err)

	assert.Equal(t, "Unnamed Project", cfg.Project.Name)
	assert.Equal(t, ".", cfg.Project.RepoPath)
	assert.Equal(t, 512, cfg.Analysis.MaxFileKB)
	assert.Equal(t, 50, cfg.Analysis.ModuleConcurrency)
	assert.Equal(t, "mermaid", cfg.Analysis.Diagrams.Renderer)
	assert.Equal(t, "auto", cfg.Summarize.Mode)
	assert.Equal(t, "concise", cfg.Summarize.Style)
	assert.Equal(t, "./out/wiki", cfg.Site.OutDir)
	assert.Equal(t, "mdbook-reveal", cfg.Slides.Flavor)
	assert.Equal(t, "docs", cfg.Publish.Mode)
	assert.True(t, cfg.Security.Offline)
	assert.Equal(t, 32, cfg.Server.RegistrySize)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.DebounceDuration())
	assert.Zero(t, cfg.Watch.RebuildIntervalDuration())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repowiki.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[project]
name = "demo"
repo-path = "`+dir+`"

[analysis]
max-file-kb = 64

[watch]
debounce = "500ms"
rebuild-interval = "1h"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 64, cfg.Analysis.MaxFileKB)
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Analysis.ModuleConcurrency)
	assert.Equal(t, "gh-pages", cfg.Publish.Branch)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, time.Hour, cfg.Watch.RebuildIntervalDuration())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPOWIKI_TEST_REPO", dir)
	path := filepath.Join(dir, "repowiki.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[project]
repo-path = "${REPOWIKI_TEST_REPO}"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.RepoPath)
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		toml string
	}{
		{"bad renderer", "[analysis.diagrams]\nrenderer = \"ascii\"\n"},
		{"bad mode", "[summarize]\nmode = \"telepathy\"\n"},
		{"bad style", "[summarize]\nstyle = \"florid\"\n"},
		{"bad flavor", "[slides]\nflavor = \"powerpoint\"\n"},
		{"bad publish mode", "[publish]\nmode = \"ftp\"\n"},
		{"negative size", "[analysis]\nmax-file-kb = -1\n"},
		{"negative concurrency", "[analysis]\nmodule-concurrency = -2\n"},
		{"missing repo", "[project]\nrepo-path = \"/definitely/not/here\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "repowiki.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.toml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repowiki.toml")
	require.NoError(t, Init(path, false))

	// The example must load and validate.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Unnamed Project", cfg.Project.Name)

	// Second init without force refuses.
	assert.Error(t, Init(path, false))
	assert.NoError(t, Init(path, true))
}
