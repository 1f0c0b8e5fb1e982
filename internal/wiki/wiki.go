// Package wiki assembles the mdBook documentation site from an index:
// book.toml, SUMMARY.md and one markdown source per section, rendered
// concurrently through the section pipeline, then an optional external
// `mdbook build`.
package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/diagram"
	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/linkcheck"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/mdbook"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/pipeline"
	"git.home.luguber.info/inful/repowiki/internal/summarize"
)

// DefaultTOC is the section order used when the caller passes none.
var DefaultTOC = []string{"overview", "architecture", "modules", "flows", "deploy", "faq"}

// Result reports one wiki build.
type Result struct {
	// SiteDir is the rendered book directory; empty when mdbook did not
	// run and only the markdown sources exist.
	SiteDir string
	Pages   int
}

// Builder builds the wiki. Construct with NewBuilder.
type Builder struct {
	cfg     *config.Config
	metrics metrics.Recorder
	checker *linkcheck.Checker
}

// NewBuilder validates the summarizer configuration up front so a bad mode
// fails the command, not the first render task.
func NewBuilder(cfg *config.Config, rec metrics.Recorder, checker *linkcheck.Checker) (*Builder, error) {
	if _, err := summarize.New(cfg); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, metrics: rec, checker: checker}, nil
}

// collab is the per-task collaborator set. The constructor error is
// carried so render funcs surface it instead of the factory panicking.
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

// Build writes the book sources under outDir and, when the mdbook binary
// is available (or forced via REPOWIKI_RUN_MDBOOK=1), renders the site.
func (b *Builder) Build(ctx context.Context, ix *index.Index, outDir string, withDiagrams bool, toc []string) (*Result, error) {
	if len(toc) == 0 {
		toc = DefaultTOC
	}

	srcDir := filepath.Join(outDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return nil, fmt.Errorf("create wiki source dir: %w", err)
	}
	if err := b.writeBookToml(outDir); err != nil {
		return nil, err
	}

	runner := &pipeline.Runner[collab]{
		NewCollaborators:  b.newCollab,
		ModuleConcurrency: b.cfg.Analysis.ModuleConcurrency,
		Metrics:           b.metrics,
	}
	results, err := runner.Run(ctx, ix, b.sections(toc, withDiagrams))
	if err != nil {
		return nil, err
	}

	pages := 0
	for _, res := range results {
		if err := os.WriteFile(filepath.Join(srcDir, res.Name+".md"), []byte(res.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write section %s: %w", res.Name, err)
		}
		if res.Name == "modules" {
			pages += max(len(ix.Modules), 1)
		} else {
			pages++
		}
	}

	if err := b.writeSummary(srcDir, results); err != nil {
		return nil, err
	}

	out := &Result{Pages: pages}
	ran, err := mdbook.Build(outDir)
	if err != nil {
		return nil, err
	}
	if ran {
		out.SiteDir = filepath.Join(outDir, "book")
	}

	if b.checker != nil {
		b.checker.Check(srcDir)
	}

	slog.Info("Wiki built",
		logfields.IndexID(ix.ID),
		logfields.Path(outDir),
		slog.Int("pages", out.Pages),
		slog.Bool("rendered", ran))
	return out, nil
}

func (b *Builder) writeBookToml(outDir string) error {
	bookToml := fmt.Sprintf(`[book]
title = %q
authors = ["repowiki"]

[build]
build-dir = "book"

[output.html]
default-theme = "navy"
preferred-dark-theme = "navy"

[output.reveal]
optional = true
`, b.cfg.Project.Name)
	if err := os.WriteFile(filepath.Join(outDir, "book.toml"), []byte(bookToml), 0o644); err != nil {
		return fmt.Errorf("write book.toml: %w", err)
	}
	return nil
}

// writeSummary emits SUMMARY.md in toc order. The link text is the first
// heading of the rendered section, falling back to the capitalized
// section name.
func (b *Builder) writeSummary(srcDir string, results []pipeline.SectionResult) error {
	var s strings.Builder
	s.WriteString("# Summary\n\n")
	for _, res := range results {
		title := firstHeading(res.Content)
		if title == "" {
			title = capitalize(res.Name)
		}
		fmt.Fprintf(&s, "- [%s](%s.md)\n", title, res.Name)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "SUMMARY.md"), []byte(s.String()), 0o644); err != nil {
		return fmt.Errorf("write SUMMARY.md: %w", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sections maps section names to their render strategies. Unknown names
// render a stub page rather than failing, matching the permissive toc
// handling of the site builder.
func (b *Builder) sections(toc []string, withDiagrams bool) []pipeline.Section[collab] {
	var sections []pipeline.Section[collab]
	for _, name := range toc {
		switch name {
		case "overview":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderOverview(b.cfg)})
		case "architecture":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderArchitecture(withDiagrams)})
		case "modules":
			sections = append(sections, pipeline.Section[collab]{
				Name:      name,
				Header:    "# Modules\n\n",
				PerModule: renderModule(b.cfg),
			})
		case "flows":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderFlows(withDiagrams)})
		case "deploy":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderDeploy})
		case "faq":
			sections = append(sections, pipeline.Section[collab]{Name: name, Render: renderFAQ})
		default:
			stub := name
			sections = append(sections, pipeline.Section[collab]{
				Name: name,
				Render: func(context.Context, *index.Index, collab) (string, error) {
					return fmt.Sprintf("# %s\n\nSection content.\n", capitalize(stub)), nil
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
		res, err := c.sum.Summarize(ctx, ix, summarize.ScopeRepo, "", cfg.Summarize.Style)
		if err != nil {
			return "", err
		}
		return res.ContentMD, nil
	}
}

func renderArchitecture(withDiagrams bool) func(context.Context, *index.Index, collab) (string, error) {
	return func(_ context.Context, ix *index.Index, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		b.WriteString("# Architecture\n\n## System shape\n\n")
		fmt.Fprintf(&b, "This repository consists of %d files, %d languages and %d modules.\n\n",
			ix.Stats.Files, ix.Stats.Languages, ix.Stats.Modules)

		if withDiagrams {
			dia, err := c.dia.Render(ix, diagram.TypeModuleGraph)
			if err != nil {
				return "", err
			}
			b.WriteString("## Module graph\n\n")
			writeDiagram(&b, dia)
		}

		b.WriteString("## Components\n\n")
		for _, m := range ix.Modules {
			fmt.Fprintf(&b, "- **%s** (`%s`)\n", m.Name, m.Path)
		}
		return b.String(), nil
	}
}

func renderModule(cfg *config.Config) func(context.Context, *index.Index, index.ModuleRecord, collab) (string, error) {
	return func(ctx context.Context, ix *index.Index, m index.ModuleRecord, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\nPath: `%s`\n\nLanguage: %s\n\n", m.Name, m.Path, m.Language)
		if len(m.Dependencies) > 0 {
			b.WriteString("### Dependencies\n\n")
			for _, dep := range m.Dependencies {
				fmt.Fprintf(&b, "- `%s`\n", dep)
			}
			b.WriteString("\n")
		}
		res, err := c.sum.Summarize(ctx, ix, summarize.ScopeModule, m.Path, cfg.Summarize.Style)
		if err != nil {
			return "", err
		}
		b.WriteString(res.ContentMD)
		b.WriteString("\n\n")
		return b.String(), nil
	}
}

func renderFlows(withDiagrams bool) func(context.Context, *index.Index, collab) (string, error) {
	return func(_ context.Context, ix *index.Index, c collab) (string, error) {
		if c.err != nil {
			return "", c.err
		}
		var b strings.Builder
		b.WriteString("# Flows\n\n")
		if withDiagrams {
			seq, err := c.dia.Render(ix, diagram.TypeSequence)
			if err != nil {
				return "", err
			}
			b.WriteString("## Sequence\n\n")
			writeDiagram(&b, seq)

			calls, err := c.dia.Render(ix, diagram.TypeCallGraph)
			if err != nil {
				return "", err
			}
			b.WriteString("## Call graph\n\n")
			writeDiagram(&b, calls)
		}
		return b.String(), nil
	}
}

func renderDeploy(_ context.Context, ix *index.Index, c collab) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b strings.Builder
	b.WriteString("# Deploy\n\n## Deployment shape\n\n")
	dia, err := c.dia.Render(ix, diagram.TypeDeployment)
	if err != nil {
		return "", err
	}
	writeDiagram(&b, dia)

	b.WriteString("## Entry points\n\n")
	for _, ep := range ix.Entrypoints {
		fmt.Fprintf(&b, "- `%s`\n", ep)
	}
	return b.String(), nil
}

func renderFAQ(_ context.Context, ix *index.Index, c collab) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b strings.Builder
	b.WriteString("# FAQ\n\n## What is this repository?\n\n")
	fmt.Fprintf(&b, "A repository with %d files, %d languages and %d modules.\n\n",
		ix.Stats.Files, ix.Stats.Languages, ix.Stats.Modules)
	b.WriteString("## Where do I start?\n\n")
	if len(ix.Entrypoints) == 0 {
		b.WriteString("No entry points were detected.\n")
		return b.String(), nil
	}
	b.WriteString("Entry points:\n")
	for _, ep := range ix.Entrypoints {
		fmt.Fprintf(&b, "- `%s`\n", ep)
	}
	return b.String(), nil
}

// writeDiagram embeds mermaid sources in a fenced block; other formats go
// into a plain code fence so the page still renders.
func writeDiagram(b *strings.Builder, d *diagram.Diagram) {
	if d.Format == diagram.RendererMermaid {
		fmt.Fprintf(b, "```mermaid\n%s\n```\n\n", strings.TrimRight(d.Content, "\n"))
		return
	}
	fmt.Fprintf(b, "```\n%s\n```\n\n", strings.TrimRight(d.Content, "\n"))
}
