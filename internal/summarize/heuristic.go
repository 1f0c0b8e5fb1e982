package summarize

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/lang"
)

// Heuristic is the static summarizer: pure functions of the index, no
// network, no model. Output quality is deliberately modest; structure and
// determinism are the contract.
type Heuristic struct{}

// Summarize dispatches on scope. Unknown scopes error; unknown styles fall
// back to concise.
func (h *Heuristic) Summarize(_ context.Context, ix *index.Index, scope, target, style string) (*Result, error) {
	detailed := style == StyleDetailed

	var content string
	var err error
	switch scope {
	case ScopeRepo:
		content = h.repo(ix, detailed)
	case ScopePackage:
		content, err = h.pkg(ix, target)
	case ScopeModule:
		content, err = h.module(ix, target, detailed)
	case ScopeFile:
		content, err = h.file(ix, target)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{ContentMD: content}
	if scope == ScopeRepo || scope == ScopePackage {
		res.Artifacts = append(res.Artifacts, Artifact{
			Type:    "mermaid",
			Path:    fmt.Sprintf("./out/diagrams/module-graph-%s.mmd", scope),
			Content: moduleGraphMermaid(ix),
		})
	}
	return res, nil
}

func (h *Heuristic) repo(ix *index.Index, detailed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nRepository with %d files, %d languages and %d modules.\n\n",
		path.Base(ix.RepoPath), ix.Stats.Files, ix.Stats.Languages, ix.Stats.Modules)

	if detailed {
		b.WriteString("## Purpose\n\n")
		b.WriteString(inferPurpose(ix))
		b.WriteString("\n\n")
	}

	b.WriteString("## Components\n\n")
	if len(ix.Modules) == 0 {
		b.WriteString("No module-level components detected.\n")
	}
	for _, m := range ix.Modules {
		fmt.Fprintf(&b, "- **%s** (`%s`): %s module\n", m.Name, m.Path, m.Language)
	}
	b.WriteString("\n")

	if len(ix.Dependencies) > 0 {
		b.WriteString("## External dependencies\n\n")
		for _, dep := range sortedKeys(ix.Dependencies) {
			fmt.Fprintf(&b, "- `%s`\n", dep)
		}
		b.WriteString("\n")
	}

	if len(ix.Entrypoints) > 0 {
		b.WriteString("## Entry points\n\n")
		for _, ep := range ix.Entrypoints {
			fmt.Fprintf(&b, "- `%s`\n", ep)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (h *Heuristic) pkg(ix *index.Index, target string) (string, error) {
	prefix := strings.TrimSuffix(target, "/") + "/"
	var files []index.FileRecord
	for _, f := range ix.Files {
		if strings.HasPrefix(f.Path, prefix) || f.Path == target {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: package %s", ErrTargetNotFound, target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nPackage with %d files.\n\n## Modules\n\n", path.Base(target), len(files))
	for _, f := range files {
		if f.IsModule {
			fmt.Fprintf(&b, "- `%s`\n", f.Path)
		}
	}
	return b.String(), nil
}

func (h *Heuristic) module(ix *index.Index, target string, detailed bool) (string, error) {
	f := findFile(ix, target)
	if f == nil {
		return "", fmt.Errorf("%w: module %s", ErrTargetNotFound, target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n## Role\n\n%s\n\n", f.Name, inferRole(f))

	if len(f.Dependencies) > 0 {
		b.WriteString("## Dependencies\n\n")
		for _, dep := range f.Dependencies {
			fmt.Fprintf(&b, "- `%s`\n", dep)
		}
		b.WriteString("\n")
	}

	if detailed {
		fmt.Fprintf(&b, "## Notes\n\n%s\n", inferNotes(f))
	}
	return b.String(), nil
}

func (h *Heuristic) file(ix *index.Index, target string) (string, error) {
	f := findFile(ix, target)
	if f == nil {
		return "", fmt.Errorf("%w: file %s", ErrTargetNotFound, target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Name)
	if f.Content != "" {
		fmt.Fprintf(&b, "## Overview\n\n%s\n", summarizeContent(f))
	}
	return b.String(), nil
}

func findFile(ix *index.Index, target string) *index.FileRecord {
	for i := range ix.Files {
		if ix.Files[i].Path == target {
			return &ix.Files[i]
		}
	}
	return nil
}

// inferPurpose guesses what the repository is from file names and
// dependency tokens. Best-effort phrasing only.
func inferPurpose(ix *index.Index) string {
	var purposes []string
	for _, f := range ix.Files {
		if strings.Contains(f.Name, "main") || strings.Contains(f.Name, "server") || strings.Contains(f.Name, "app") {
			purposes = append(purposes, "Likely runs as an application or server.")
			break
		}
	}
	for _, dep := range sortedKeys(ix.Dependencies) {
		if strings.Contains(dep, "express") || strings.Contains(dep, "fastapi") || strings.Contains(dep, "flask") {
			purposes = append(purposes, "Serves a web application or API.")
			break
		}
		if strings.Contains(dep, "react") || strings.Contains(dep, "vue") || strings.Contains(dep, "angular") {
			purposes = append(purposes, "Frontend application.")
			break
		}
	}
	if len(purposes) == 0 {
		return "Further analysis is needed to determine the purpose of this codebase."
	}
	return strings.Join(purposes, "\n")
}

func inferRole(f *index.FileRecord) string {
	name := strings.ToLower(f.Name)
	switch {
	case strings.Contains(name, "config") || strings.Contains(name, "setting"):
		return "Manages configuration."
	case strings.Contains(name, "api") || strings.Contains(name, "route"):
		return "Defines API endpoints or routing."
	case strings.Contains(name, "util") || strings.Contains(name, "helper"):
		return "Provides utility functions."
	case strings.Contains(name, "model") || strings.Contains(name, "schema"):
		return "Defines data models or schemas."
	case strings.Contains(name, "service") || strings.Contains(name, "business"):
		return "Implements business logic."
	default:
		return fmt.Sprintf("Module written in %s.", f.Language)
	}
}

func inferNotes(f *index.FileRecord) string {
	var notes []string
	if f.Size > 10000 {
		notes = append(notes, "Large file; consider splitting it up.")
	}
	if len(f.Dependencies) > 20 {
		notes = append(notes, "Many dependencies; coupling may be high.")
	}
	if len(notes) == 0 {
		return "Nothing noteworthy found."
	}
	return strings.Join(notes, "\n")
}

// summarizeContent lists function names via the language capability, or
// falls back to a line count.
func summarizeContent(f *index.FileRecord) string {
	if l := lang.ForTag(f.Language); l != nil {
		if funcs := l.ExtractFunctions(f.Content); len(funcs) > 0 {
			var b strings.Builder
			b.WriteString("Main functions:\n")
			for _, fn := range funcs {
				fmt.Fprintf(&b, "- `%s`\n", fn)
			}
			return b.String()
		}
	}
	return fmt.Sprintf("File with %d lines of code.", strings.Count(f.Content, "\n")+1)
}

// moduleGraphMermaid emits the simple node-only module graph shipped as a
// summary artifact. Edges belong to the diagram package.
func moduleGraphMermaid(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for i, m := range ix.Modules {
		fmt.Fprintf(&b, "    M%d[\"%s\"]\n", i, m.Name)
	}
	return b.String()
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
