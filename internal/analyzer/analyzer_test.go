package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.home.luguber.info/inful/repowiki/internal/index"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeBuildsIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.ts", "import { app } from \"./app\";\n")
	writeFile(t, root, "src/app.ts", "import express from \"express\";\nexport function run() {}\n")
	writeFile(t, root, "util/helper.py", "import os\nfrom pathlib import Path\n")
	writeFile(t, root, "cmd/tool/main.go", "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println() }\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "logo.png", "binary-ish")

	a := New(Options{})
	ix, err := a.Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if ix.ID == "" {
		t.Error("index ID not generated")
	}
	if ix.Stats.Files != len(ix.Files) {
		t.Errorf("Stats.Files = %d, len(Files) = %d", ix.Stats.Files, len(ix.Files))
	}
	if ix.Stats.Modules != len(ix.Modules) {
		t.Errorf("Stats.Modules = %d, len(Modules) = %d", ix.Stats.Modules, len(ix.Modules))
	}
	if ix.Stats.Files != 4 {
		t.Errorf("expected 4 indexed files, got %d: %+v", ix.Stats.Files, paths(ix.Files))
	}

	// README.md and logo.png have unsupported extensions and must not
	// appear at all.
	for _, f := range ix.Files {
		if strings.HasSuffix(f.Path, ".md") || strings.HasSuffix(f.Path, ".png") {
			t.Errorf("unsupported file indexed: %s", f.Path)
		}
	}

	wantLangs := []string{"go", "py", "ts"}
	if len(ix.Languages) != len(wantLangs) {
		t.Fatalf("languages = %v, want %v", ix.Languages, wantLangs)
	}
	for i, l := range wantLangs {
		if ix.Languages[i] != l {
			t.Errorf("languages = %v, want %v", ix.Languages, wantLangs)
		}
	}

	// src/*.ts are both modules (parent src), cmd/tool/main.go is not
	// (parent is tool, not cmd).
	modules := make(map[string]bool)
	for _, m := range ix.Modules {
		modules[m.Path] = true
	}
	if !modules["src/index.ts"] || !modules["src/app.ts"] {
		t.Errorf("src modules missing: %v", modules)
	}
	if modules["cmd/tool/main.go"] {
		t.Error("cmd/tool/main.go classified as module; parent dir is tool")
	}

	// Every extracted dependency token is a key in the table.
	for _, f := range ix.Files {
		for _, dep := range f.Dependencies {
			if _, ok := ix.Dependencies[dep]; !ok {
				t.Errorf("dependency %q of %s missing from table", dep, f.Path)
			}
		}
	}
	for _, dep := range []string{"express", "os", "pathlib", "fmt"} {
		if _, ok := ix.Dependencies[dep]; !ok {
			t.Errorf("expected dependency key %q", dep)
		}
	}
}

func TestAnalyzeSkipsExcludedAndOversize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/keep.ts", "export function keep() {}\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "big.go", "package big\n"+strings.Repeat("// padding line\n", 200))

	a := New(Options{
		MaxFileKB: 1,
		Exclude:   []string{"**/node_modules/**"},
	})
	ix, err := a.Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, f := range ix.Files {
		if strings.Contains(f.Path, "node_modules") {
			t.Errorf("excluded path indexed: %s", f.Path)
		}
		if f.Path == "big.go" {
			t.Error("oversize file indexed")
		}
	}
	if ix.Stats.Files != 1 {
		t.Errorf("expected only src/keep.ts, got %v", paths(ix.Files))
	}
}

func TestAnalyzeUnreadableFileRegistersLanguage(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "main.py", "import os\n")
	// broken.go classifies as go but cannot be read.
	writeFile(t, root, "broken.go", "package broken\n")
	if err := os.Chmod(filepath.Join(root, "broken.go"), 0o000); err != nil {
		t.Fatal(err)
	}

	ix, err := New(Options{}).Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := paths(ix.Files); len(got) != 1 || got[0] != "main.py" {
		t.Errorf("indexed files = %v, want only main.py", got)
	}
	wantLangs := []string{"go", "py"}
	if len(ix.Languages) != 2 || ix.Languages[0] != "go" || ix.Languages[1] != "py" {
		t.Errorf("languages = %v, want %v", ix.Languages, wantLangs)
	}
	if ix.Stats.Languages != 2 {
		t.Errorf("Stats.Languages = %d, want 2", ix.Stats.Languages)
	}
}

func TestAnalyzeRootUnreadableIsFatal(t *testing.T) {
	a := New(Options{})
	_, err := a.Analyze(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, ErrRootUnreadable) {
		t.Errorf("error = %v, want ErrRootUnreadable", err)
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).Analyze(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestInferEntrypoints(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "apps/web/index.ts", "export {};\n")
	writeFile(t, root, "deep/nested/main.ts", "export {};\n")
	writeFile(t, root, "hinted/entry.py", "print()\n")

	got := inferEntrypoints(root, []string{"hinted/entry.py", "missing/hint.py"})
	want := map[string]bool{
		"hinted/entry.py":     true,
		"main.go":             true,
		"apps/web/index.ts":   true,
		"deep/nested/main.ts": true, // basename scan is tree-wide, prefixes not enforced
	}
	if len(got) != len(want) {
		t.Fatalf("entrypoints = %v, want keys %v", got, want)
	}
	seen := make(map[string]bool)
	for _, e := range got {
		if !want[e] {
			t.Errorf("unexpected entrypoint %s", e)
		}
		if seen[e] {
			t.Errorf("duplicate entrypoint %s", e)
		}
		seen[e] = true
	}
}

func paths(files []index.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
