package main

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/analyzer"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/publish"
	"git.home.luguber.info/inful/repowiki/internal/slides"
	"git.home.luguber.info/inful/repowiki/internal/summarize"
	"git.home.luguber.info/inful/repowiki/internal/wiki"
)

// buildIndex loads the config and indexes repoPath (or the configured
// repository when empty).
func buildIndex(ctx context.Context, repoPath string) (*config.Config, *index.Index, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if repoPath == "" {
		repoPath = cfg.Project.RepoPath
	}
	ix, err := analyzer.New(analyzer.OptionsFromConfig(cfg, nil)).Analyze(ctx, repoPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ix, nil
}

func runIndex(path string) error {
	ctx, stop := signalContext()
	defer stop()

	_, ix, err := buildIndex(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("Index %s\n", ix.ID)
	fmt.Printf("  Repository: %s\n", ix.RepoPath)
	fmt.Printf("  Files:      %d\n", ix.Stats.Files)
	fmt.Printf("  Languages:  %d (%s)\n", ix.Stats.Languages, strings.Join(ix.Languages, ", "))
	fmt.Printf("  Modules:    %d\n", ix.Stats.Modules)
	if len(ix.Entrypoints) > 0 {
		fmt.Println("  Entry points:")
		for _, ep := range ix.Entrypoints {
			fmt.Printf("    %s\n", ep)
		}
	}
	return nil
}

func runSearch(query string, k int, repo string) error {
	ctx, stop := signalContext()
	defer stop()

	_, ix, err := buildIndex(ctx, repo)
	if err != nil {
		return err
	}

	hits := ix.Search(query, k)
	if len(hits) == 0 {
		fmt.Println("No hits.")
		return nil
	}
	for _, hit := range hits {
		fmt.Printf("%s (score %.2f)\n    %s\n", hit.Path, hit.Score, hit.Excerpt)
	}
	return nil
}

func runSummarize(scope, target, style string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, ix, err := buildIndex(ctx, "")
	if err != nil {
		return err
	}
	if style == "" {
		style = cfg.Summarize.Style
	}

	sum, err := summarize.New(cfg)
	if err != nil {
		return err
	}
	res, err := sum.Summarize(ctx, ix, scope, target, style)
	if err != nil {
		return err
	}
	fmt.Println(res.ContentMD)
	return nil
}

func runWiki(outDir string, withDiagrams bool, toc []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, ix, err := buildIndex(ctx, "")
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = cfg.Site.OutDir
	}

	builder, err := wiki.NewBuilder(cfg, nil, nil)
	if err != nil {
		return err
	}
	res, err := builder.Build(ctx, ix, outDir, withDiagrams, toc)
	if err != nil {
		return err
	}

	fmt.Printf("Wiki built: %d pages in %s\n", res.Pages, outDir)
	if res.SiteDir != "" {
		fmt.Printf("Rendered site: %s\n", res.SiteDir)
	}
	return nil
}

func runSlides(flavor, outDir string, sections, export []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, ix, err := buildIndex(ctx, "")
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = cfg.Slides.OutDir
	}

	builder, err := slides.NewBuilder(cfg, nil)
	if err != nil {
		return err
	}
	res, err := builder.Build(ctx, ix, flavor, outDir, sections, export)
	if err != nil {
		return err
	}

	if len(res.Files) == 0 {
		fmt.Printf("Slides written to %s\n", outDir)
		return nil
	}
	for _, f := range res.Files {
		fmt.Printf("Slides (%s): %s\n", f.Format, f.Path)
	}
	return nil
}

func runPublish() error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mode := CLI.Publish.Mode
	if mode == "" {
		mode = cfg.Publish.Mode
	}
	branch := CLI.Publish.Branch
	if branch == "" {
		branch = cfg.Publish.Branch
	}
	siteDir := CLI.Publish.SiteDir
	if siteDir == "" {
		siteDir = cfg.Site.OutDir
	}
	slidesDir := CLI.Publish.SlidesDir
	if slidesDir == "" {
		slidesDir = cfg.Slides.OutDir
	}

	p := publish.New(nil)
	res, err := p.Publish(ctx, mode, siteDir, slidesDir, CLI.Publish.RepoRoot, branch)
	if err != nil {
		return err
	}
	fmt.Println(res.Hint)

	if CLI.Publish.WriteWorkflow {
		path, err := p.WriteActionsWorkflow(CLI.Publish.RepoRoot)
		if err != nil {
			return err
		}
		fmt.Printf("Workflow written: %s\n", path)
	}
	return nil
}

// runBuildAll is the composite flow: index, wiki, slides, and a docs-mode
// publish when configured.
func runBuildAll() error {
	ctx, stop := signalContext()
	defer stop()

	cfg, ix, err := buildIndex(ctx, "")
	if err != nil {
		return err
	}

	wikiBuilder, err := wiki.NewBuilder(cfg, nil, nil)
	if err != nil {
		return err
	}
	wikiRes, err := wikiBuilder.Build(ctx, ix, cfg.Site.OutDir, true, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Wiki built: %d pages in %s\n", wikiRes.Pages, cfg.Site.OutDir)

	slideBuilder, err := slides.NewBuilder(cfg, nil)
	if err != nil {
		return err
	}
	if _, err := slideBuilder.Build(ctx, ix, "", cfg.Slides.OutDir, nil, nil); err != nil {
		return err
	}
	fmt.Printf("Slides written to %s\n", cfg.Slides.OutDir)

	if cfg.Publish.Mode == publish.ModeDocs {
		res, err := publish.New(nil).Publish(ctx, publish.ModeDocs,
			cfg.Site.OutDir, cfg.Slides.OutDir, cfg.Project.RepoPath, cfg.Publish.Branch)
		if err != nil {
			return err
		}
		fmt.Println(res.Hint)
	}
	return nil
}
