package slides

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
)

func slideIndex() *index.Index {
	return &index.Index{
		ID:       "idx-slides",
		RepoPath: "/work/demo",
		Files: []index.FileRecord{
			{Path: "src/app.ts", Name: "app", Language: "ts", IsModule: true,
				Content: "export function run() {}\n"},
		},
		Modules: []index.ModuleRecord{
			{Path: "src/app.ts", Name: "app", Language: "ts", Dependencies: []string{"express"}},
		},
		Languages:   []string{"ts"},
		Entrypoints: []string{"src/app.ts"},
		Stats:       index.Stats{Files: 1, Languages: 1, Modules: 1},
	}
}

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	t.Setenv("REPOWIKI_SKIP_MDBOOK", "1")
	t.Setenv("REPOWIKI_SKIP_MARP", "1")
	cfg := config.Default()
	cfg.Project.Name = "Demo Slides"
	cfg.Summarize.Mode = "local"
	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	return b
}

func TestBuildMarpDeck(t *testing.T) {
	b := testBuilder(t)
	out := t.TempDir()

	res, err := b.Build(context.Background(), slideIndex(), FlavorMarp, out, nil, nil)
	require.NoError(t, err)
	// marp is gated off, so the markdown deck is the only artifact.
	assert.Empty(t, res.Files)

	deck, err := os.ReadFile(filepath.Join(out, "slides.md"))
	require.NoError(t, err)
	text := string(deck)

	assert.True(t, strings.HasPrefix(text, "---\nmarp: true\ntheme: default\n---\n\n"))
	// Default sections in order.
	assert.Less(t, strings.Index(text, "# demo"), strings.Index(text, "## Architecture"))
	assert.Less(t, strings.Index(text, "## Architecture"), strings.Index(text, "## Modules"))
	assert.Contains(t, text, "**Stats**: 1 files, 1 languages, 1 modules")
	assert.Contains(t, text, "```mermaid")
	assert.Contains(t, text, "### app")
}

func TestBuildMdbookRevealSources(t *testing.T) {
	b := testBuilder(t)
	out := t.TempDir()

	res, err := b.Build(context.Background(), slideIndex(), FlavorMdbookReveal, out,
		[]string{"overview", "deploy"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Files)

	bookToml, err := os.ReadFile(filepath.Join(out, "book.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(bookToml), `title = "Demo Slides"`)
	assert.Contains(t, string(bookToml), "[output.reveal]")

	summary, err := os.ReadFile(filepath.Join(out, "src", "SUMMARY.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "- [Overview](overview.md)")
	assert.Contains(t, string(summary), "- [Deploy](deploy.md)")

	deploy, err := os.ReadFile(filepath.Join(out, "src", "deploy.md"))
	require.NoError(t, err)
	assert.Contains(t, string(deploy), "## Deployment")
	assert.Contains(t, string(deploy), "- `src/app.ts`")
}

func TestBuildUnknownFlavor(t *testing.T) {
	b := testBuilder(t)

	_, err := b.Build(context.Background(), slideIndex(), "keynote", t.TempDir(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFlavor)
}

func TestBuildUnknownSectionRendersStub(t *testing.T) {
	b := testBuilder(t)
	out := t.TempDir()

	_, err := b.Build(context.Background(), slideIndex(), FlavorMdbookReveal, out,
		[]string{"risks"}, nil)
	require.NoError(t, err)

	stub, err := os.ReadFile(filepath.Join(out, "src", "risks.md"))
	require.NoError(t, err)
	assert.Contains(t, string(stub), "## risks")
}
