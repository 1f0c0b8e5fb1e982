package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
)

func demoIndex() *index.Index {
	return &index.Index{
		ID:       "idx",
		RepoPath: "/work/demo",
		Files: []index.FileRecord{
			{Path: "src/config.ts", Name: "config", Language: "ts", Size: 900, IsModule: true,
				Dependencies: []string{"dotenv"},
				Content:      "export function loadConfig() {}\nexport function saveConfig() {}\n"},
			{Path: "src/server.ts", Name: "server", Language: "ts", Size: 1200, IsModule: true,
				Dependencies: []string{"express"},
				Content:      "import express from \"express\";\n"},
			{Path: "notes.py", Name: "notes", Language: "py", Size: 40,
				Content: "x = 1\ny = 2\n"},
		},
		Modules: []index.ModuleRecord{
			{Path: "src/config.ts", Name: "config", Language: "ts", Dependencies: []string{"dotenv"}},
			{Path: "src/server.ts", Name: "server", Language: "ts", Dependencies: []string{"express"}},
		},
		Languages:    []string{"py", "ts"},
		Dependencies: map[string][]string{"dotenv": nil, "express": nil},
		Entrypoints:  []string{"src/server.ts"},
		Stats:        index.Stats{Files: 3, Languages: 2, Modules: 2},
	}
}

func TestHeuristicRepoScope(t *testing.T) {
	h := &Heuristic{}
	res, err := h.Summarize(context.Background(), demoIndex(), ScopeRepo, "", StyleConcise)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	for _, want := range []string{
		"# demo",
		"3 files, 2 languages and 2 modules",
		"**config** (`src/config.ts`): ts module",
		"- `express`",
		"## Entry points",
		"- `src/server.ts`",
	} {
		if !strings.Contains(res.ContentMD, want) {
			t.Errorf("repo summary missing %q:\n%s", want, res.ContentMD)
		}
	}
	if strings.Contains(res.ContentMD, "## Purpose") {
		t.Error("concise style rendered the detailed purpose section")
	}

	if len(res.Artifacts) != 1 || res.Artifacts[0].Type != "mermaid" {
		t.Fatalf("artifacts = %+v, want one mermaid module graph", res.Artifacts)
	}
	if !strings.Contains(res.Artifacts[0].Content, "M0[\"config\"]") {
		t.Errorf("artifact content:\n%s", res.Artifacts[0].Content)
	}
}

func TestHeuristicDetailedAddsPurposeAndNotes(t *testing.T) {
	h := &Heuristic{}
	repo, err := h.Summarize(context.Background(), demoIndex(), ScopeRepo, "", StyleDetailed)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(repo.ContentMD, "## Purpose") {
		t.Error("detailed repo summary missing purpose section")
	}
	if !strings.Contains(repo.ContentMD, "web application or API") {
		t.Errorf("express dependency not picked up:\n%s", repo.ContentMD)
	}

	mod, err := h.Summarize(context.Background(), demoIndex(), ScopeModule, "src/config.ts", StyleDetailed)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(mod.ContentMD, "Manages configuration.") {
		t.Errorf("config role not inferred:\n%s", mod.ContentMD)
	}
	if !strings.Contains(mod.ContentMD, "## Notes") {
		t.Error("detailed module summary missing notes section")
	}
}

func TestHeuristicPackageScope(t *testing.T) {
	h := &Heuristic{}
	res, err := h.Summarize(context.Background(), demoIndex(), ScopePackage, "src", StyleConcise)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(res.ContentMD, "Package with 2 files.") {
		t.Errorf("package summary:\n%s", res.ContentMD)
	}
	if !strings.Contains(res.ContentMD, "- `src/config.ts`") {
		t.Errorf("module list missing:\n%s", res.ContentMD)
	}

	if _, err := h.Summarize(context.Background(), demoIndex(), ScopePackage, "no/such/dir", StyleConcise); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("missing package error = %v", err)
	}
}

func TestHeuristicFileScope(t *testing.T) {
	h := &Heuristic{}
	res, err := h.Summarize(context.Background(), demoIndex(), ScopeFile, "src/config.ts", StyleConcise)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(res.ContentMD, "- `loadConfig`") || !strings.Contains(res.ContentMD, "- `saveConfig`") {
		t.Errorf("function names not extracted:\n%s", res.ContentMD)
	}

	// A file whose language heuristics find nothing falls back to lines.
	res, err = h.Summarize(context.Background(), demoIndex(), ScopeFile, "notes.py", StyleConcise)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(res.ContentMD, "lines of code") {
		t.Errorf("line-count fallback missing:\n%s", res.ContentMD)
	}
}

func TestHeuristicUnknownScope(t *testing.T) {
	h := &Heuristic{}
	if _, err := h.Summarize(context.Background(), demoIndex(), "galaxy", "", StyleConcise); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("error = %v, want ErrUnknownScope", err)
	}
}

func TestNewModeSelection(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := config.Default()
	cfg.Summarize.Mode = "none"
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New(none): %v", err)
	}
	res, err := s.Summarize(context.Background(), demoIndex(), ScopeRepo, "", StyleConcise)
	if err != nil {
		t.Fatalf("disabled Summarize: %v", err)
	}
	if !strings.Contains(res.ContentMD, "Summarization is disabled.") {
		t.Errorf("stub output:\n%s", res.ContentMD)
	}

	// auto without a key resolves to the heuristic.
	cfg.Summarize.Mode = "auto"
	s, err = New(cfg)
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if _, ok := s.(*Heuristic); !ok {
		t.Errorf("auto offline resolved to %T, want *Heuristic", s)
	}

	// remote without a key is a hard error.
	cfg.Summarize.Mode = "remote"
	cfg.Security.Offline = false
	if _, err := New(cfg); err == nil {
		t.Error("remote without GEMINI_API_KEY must fail")
	}

	cfg.Summarize.Mode = "banana"
	if _, err := New(cfg); err == nil {
		t.Error("unknown mode must fail")
	}
}
