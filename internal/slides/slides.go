// Package slides generates presentation decks from an index, either as an
// mdbook-reveal book or as a single Marp deck exported to html/pdf/pptx.
package slides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/diagram"
	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/mdbook"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/pipeline"
	"git.home.luguber.info/inful/repowiki/internal/summarize"
)

// ErrUnknownFlavor is returned for flavors other than mdbook-reveal and marp.
var ErrUnknownFlavor = errors.New("unknown slide flavor")

// Deck flavors.
const (
	FlavorMdbookReveal = "mdbook-reveal"
	FlavorMarp         = "marp"
)

// DefaultSections is the deck outline used when the caller passes none.
var DefaultSections = []string{"overview", "architecture", "modules"}

// DefaultExport is the export format list used when the caller passes none.
var DefaultExport = []string{"html"}

// File is one produced deck artifact.
type File struct {
	Format string
	Path   string
}

// Result reports one slide build.
type Result struct {
	Files []File
}

// Builder builds slide decks. Construct with NewBuilder.
type Builder struct {
	cfg     *config.Config
	metrics metrics.Recorder
}

// NewBuilder validates the summarizer configuration up front, like the
// wiki builder does.
func NewBuilder(cfg *config.Config, rec metrics.Recorder) (*Builder, error) {
	if _, err := summarize.New(cfg); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, metrics: rec}, nil
}

type collab struct {
	sum summarize.Summarizer
	dia *diagram.Diagrammer
	err error
}

func (b *Builder) newCollab() collab {
	s, err := summarize.New(b.cfg)
	return collab{
		sum: s,
		dia: diagram.New(b.cfg.Analysis.Diagrams.Renderer),
		err: err,
	}
}

// Build renders the deck under outDir. An empty flavor falls back to the
// configured one; empty sections and export use the defaults.
func (b *Builder) Build(ctx context.Context, ix *index.Index, flavor, outDir string, sections, export []string) (*Result, error) {
	if flavor == "" {
		flavor = b.cfg.Slides.Flavor
	}
	if len(sections) == 0 {
		sections = DefaultSections
	}
	if len(export) == 0 {
		export = DefaultExport
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create slides dir: %w", err)
	}

	slog.Info("Building slides",
		logfields.IndexID(ix.ID),
		logfields.Flavor(flavor),
		logfields.Path(outDir))

	switch flavor {
	case FlavorMdbookReveal:
		return b.buildMdbookReveal(ctx, ix, outDir, sections)
	case FlavorMarp:
		return b.buildMarp(ctx, ix, outDir, sections, export)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, flavor)
	}
}

func (b *Builder) buildMdbookReveal(ctx context.Context, ix *index.Index, outDir string, sections []string) (*Result, error) {
	srcDir := filepath.Join(outDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return nil, fmt.Errorf("create slides source dir: %w", err)
	}
	if err := b.writeBookToml(outDir); err != nil {
		return nil, err
	}

	results, err := b.render(ctx, ix, sections)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if err := os.WriteFile(filepath.Join(srcDir, res.Name+".md"), []byte(res.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write slide section %s: %w", res.Name, err)
		}
	}
	if err := writeSummary(srcDir, results); err != nil {
		return nil, err
	}

	ran, err := mdbook.Build(outDir)
	if err != nil {
		return nil, err
	}

	out := &Result{}
	if ran {
		htmlPath := filepath.Join(outDir, "book", "index.html")
		if _, err := os.Stat(htmlPath); err == nil {
			out.Files = append(out.Files, File{Format: "html", Path: htmlPath})
		}
	}
	return out, nil
}

func (b *Builder) buildMarp(ctx context.Context, ix *index.Index, outDir string, sections, export []string) (*Result, error) {
	results, err := b.render(ctx, ix, sections)
	if err != nil {
		return nil, err
	}

	var deck strings.Builder
	deck.WriteString("---\nmarp: true\ntheme: default\n---\n\n")
	for _, res := range results {
		deck.WriteString(res.Content)
		deck.WriteString("\n")
	}

	deckPath := filepath.Join(outDir, "slides.md")
	if err := os.WriteFile(deckPath, []byte(deck.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write slides.md: %w", err)
	}

	files, err := exportMarp(deckPath, outDir, export)
	if err != nil {
		return nil, err
	}
	return &Result{Files: files}, nil
}

func (b *Builder) render(ctx context.Context, ix *index.Index, sections []string) ([]pipeline.SectionResult, error) {
	runner := &pipeline.Runner[collab]{
		NewCollaborators:  b.newCollab,
		ModuleConcurrency: b.cfg.Analysis.ModuleConcurrency,
		Metrics:           b.metrics,
	}
	return runner.Run(ctx, ix, b.sections(sections))
}

func (b *Builder) writeBookToml(outDir string) error {
	bookToml := fmt.Sprintf(`[book]
title = %q
authors = ["repowiki"]

[build]
build-dir = "book"

[output.html]
default-theme = "black"

[output.reveal]
`, b.cfg.Project.Name)
	if err := os.WriteFile(filepath.Join(outDir, "book.toml"), []byte(bookToml), 0o644); err != nil {
		return fmt.Errorf("write book.toml: %w", err)
	}
	return nil
}

func writeSummary(srcDir string, results []pipeline.SectionResult) error {
	var s strings.Builder
	s.WriteString("# Summary\n\n")
	for _, res := range results {
		fmt.Fprintf(&s, "- [%s](%s.md)\n", sectionTitle(res.Name), res.Name)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "SUMMARY.md"), []byte(s.String()), 0o644); err != nil {
		return fmt.Errorf("write SUMMARY.md: %w", err)
	}
	return nil
}

func sectionTitle(section string) string {
	switch section {
	case "overview":
		return "Overview"
	case "architecture":
		return "Architecture"
	case "modules":
		return "Modules"
	case "flows":
		return "Flows"
	case "deploy":
		return "Deploy"
	default:
		return section
	}
}

// sections maps section names to slide renderers. Each slide is delimited
// with --- separators so the content works both as reveal pages and as a
// Marp deck. Unknown names render a stub slide.
func (b *Builder) sections(names []string) []pipeline.Section[collab] {
	var sections []pipeline.Section[collab]
	for _, name := range names {
		switch name {
		case "overview":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderOverview(b.cfg)})
		case "architecture":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderArchitecture(b.cfg)})
		case "modules":
			sections = append(sections, pipeline.Section[collab]{
				Name:      name,
				Header:    "---\n## Modules\n---\n\n",
				PerModule: renderModuleSlide(b.cfg),
			})
		case "flows":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderFlows})
		case "deploy":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderDeploy})
		default:
			stub := name
			sections = append(sections, pipeline.Section[collab]{
				Name: name,
				Render: func(context.Context, *index.Index, collab) (string, error) {
					return fmt.Sprintf("---\n## %s\n\nSlide content.\n---\n\n", stub), nil
				},
			})
		}
	}
	return sections
}

func renderOverview(cfg *config.Config) func(context.Context, *index.Index, collab) (string, error) {
	return func(ctx context.Context, ix *index.Index, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		b.WriteString("---\n")
		fmt.Fprintf(&b, "# %s\n\n", filepath.Base(ix.RepoPath))

		res, err := c.sum.Summarize(ctx, ix, summarize.ScopeRepo, "", cfg.Summarize.Style)
		if err != nil {
			return "", err
		}
		writeLeadLines(&b, res.ContentMD, 5)
		b.WriteString("\n")

		fmt.Fprintf(&b, "**Stats**: %d files, %d languages, %d modules\n",
			ix.Stats.Files, ix.Stats.Languages, ix.Stats.Modules)
		b.WriteString("---\n\n")

		b.WriteString("---\n## System shape\n\n")
		dia, err := c.dia.Render(ix, diagram.TypeModuleGraph)
		if err != nil {
			return "", err
		}
		writeDiagram(&b, dia)
		b.WriteString("---\n\n")
		return b.String(), nil
	}
}

func renderArchitecture(cfg *config.Config) func(context.Context, *index.Index, collab) (string, error) {
	return func(ctx context.Context, ix *index.Index, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		b.WriteString("---\n## Architecture\n---\n\n")

		res, err := c.sum.Summarize(ctx, ix, summarize.ScopeRepo, "", cfg.Summarize.Style)
		if err != nil {
			return "", err
		}
		writeLeadLines(&b, res.ContentMD, 10)
		b.WriteString("\n---\n\n")

		b.WriteString("---\n### Module graph\n\n")
		dia, err := c.dia.Render(ix, diagram.TypeModuleGraph)
		if err != nil {
			return "", err
		}
		writeDiagram(&b, dia)
		b.WriteString("---\n\n")

		b.WriteString("---\n### Main modules\n\n")
		for i, m := range ix.Modules {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, m.Name)
			fmt.Fprintf(&b, "   - Path: `%s`\n", m.Path)
			fmt.Fprintf(&b, "   - Language: %s\n", m.Language)
			if len(m.Dependencies) > 0 {
				fmt.Fprintf(&b, "   - Depends on: %s\n", strings.Join(m.Dependencies, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
		return b.String(), nil
	}
}

func renderModuleSlide(cfg *config.Config) func(context.Context, *index.Index, index.ModuleRecord, collab) (string, error) {
	return func(ctx context.Context, ix *index.Index, m index.ModuleRecord, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n\n", m.Name)
		fmt.Fprintf(&b, "**Path**: `%s`\n\n", m.Path)
		fmt.Fprintf(&b, "**Language**: %s\n\n", m.Language)
		if len(m.Dependencies) > 0 {
			b.WriteString("**Dependencies**:\n")
			for _, dep := range m.Dependencies {
				fmt.Fprintf(&b, "- `%s`\n", dep)
			}
			b.WriteString("\n")
		}
		res, err := c.sum.Summarize(ctx, ix, summarize.ScopeModule, m.Path, cfg.Summarize.Style)
		if err != nil {
			return "", err
		}
		writeLeadLines(&b, res.ContentMD, 10)
		b.WriteString("\n---\n\n")
		return b.String(), nil
	}
}

func renderFlows(_ context.Context, ix *index.Index, c collab) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b strings.Builder
	b.WriteString("---\n## System flows\n---\n\n")

	seq, err := c.dia.Render(ix, diagram.TypeSequence)
	if err != nil {
		return "", err
	}
	b.WriteString("---\n### Sequence\n\n")
	writeDiagram(&b, seq)
	b.WriteString("---\n\n")

	calls, err := c.dia.Render(ix, diagram.TypeCallGraph)
	if err != nil {
		return "", err
	}
	b.WriteString("---\n### Call graph\n\n")
	writeDiagram(&b, calls)
	b.WriteString("---\n\n")
	return b.String(), nil
}

func renderDeploy(_ context.Context, ix *index.Index, c collab) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b strings.Builder
	b.WriteString("---\n## Deployment\n---\n\n")

	dia, err := c.dia.Render(ix, diagram.TypeDeployment)
	if err != nil {
		return "", err
	}
	writeDiagram(&b, dia)
	b.WriteString("\n---\n\n")

	b.WriteString("---\n### Entry points\n\n")
	if len(ix.Entrypoints) == 0 {
		b.WriteString("No entry points were detected.\n")
	} else {
		for _, ep := range ix.Entrypoints {
			fmt.Fprintf(&b, "- `%s`\n", ep)
		}
	}
	b.WriteString("\n---\n\n")
	return b.String(), nil
}

// writeLeadLines copies up to limit non-empty lines from content.
func writeLeadLines(b *strings.Builder, content string, limit int) {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if n == limit {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		n++
	}
}

func writeDiagram(b *strings.Builder, d *diagram.Diagram) {
	if d.Format == diagram.RendererMermaid {
		fmt.Fprintf(b, "```mermaid\n%s\n```\n", strings.TrimRight(d.Content, "\n"))
		return
	}
	fmt.Fprintf(b, "```\n%s\n```\n", strings.TrimRight(d.Content, "\n"))
}
