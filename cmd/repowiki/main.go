package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/daemon"
	"git.home.luguber.info/inful/repowiki/internal/server"
	"git.home.luguber.info/inful/repowiki/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"repowiki.toml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Index struct {
		Path string `arg:"" optional:"" help:"Repository path (defaults to [project].repo-path)"`
	} `cmd:"" help:"Index a repository and print its stats"`

	Search struct {
		Query string `arg:"" help:"Search query"`
		K     int    `short:"k" default:"20" help:"Maximum number of hits"`
		Repo  string `help:"Repository path (defaults to [project].repo-path)"`
	} `cmd:"" help:"Search file contents of an indexed repository"`

	Summarize struct {
		Scope  string `default:"repo" help:"Summary scope: repo|package|module|file"`
		Target string `help:"Scope target (path or package prefix)"`
		Style  string `help:"Summary style: concise|detailed"`
	} `cmd:"" help:"Print a markdown summary of the repository or a part of it"`

	Wiki struct {
		Out        string   `help:"Output directory (defaults to [site].out-dir)"`
		NoDiagrams bool     `help:"Skip diagram generation"`
		TOC        []string `help:"Section order (defaults to the standard TOC)"`
	} `cmd:"" help:"Generate the mdBook wiki"`

	Slides struct {
		Flavor   string   `help:"Deck flavor: mdbook-reveal|marp (defaults to [slides].flavor)"`
		Out      string   `help:"Output directory (defaults to [slides].out-dir)"`
		Sections []string `help:"Deck sections (defaults to overview, architecture, modules)"`
		Export   []string `help:"Marp export formats: html|pdf|pptx"`
	} `cmd:"" help:"Generate a slide deck"`

	Publish struct {
		Mode          string `help:"Publish mode: docs|gh-pages (defaults to [publish].mode)"`
		SiteDir       string `help:"Rendered site directory"`
		SlidesDir     string `help:"Rendered slides directory"`
		RepoRoot      string `default:"." help:"Repository to publish into"`
		Branch        string `help:"Pages branch (defaults to [publish].branch)"`
		WriteWorkflow bool   `help:"Also write .github/workflows/pages.yml"`
	} `cmd:"" help:"Publish generated output to GitHub Pages"`

	BuildAll struct{} `cmd:"" name:"build-all" help:"Index, build wiki and slides, then publish in docs mode"`

	Serve struct{} `cmd:"" help:"Serve the JSON-RPC interface on stdin/stdout"`

	Watch struct{} `cmd:"" help:"Watch the repository and rebuild on change"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	// Optional; secrets like GEMINI_API_KEY often live in .env.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	// Logs go to stderr; stdout carries command output and, in serve
	// mode, the JSON-RPC stream.
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if os.Getenv("RUN_AS_MCP") == "1" {
		exitOn("serve", runServe())
		return
	}

	switch kctx.Command() {
	case "index", "index <path>":
		exitOn("index", runIndex(CLI.Index.Path))
	case "search <query>":
		exitOn("search", runSearch(CLI.Search.Query, CLI.Search.K, CLI.Search.Repo))
	case "summarize":
		exitOn("summarize", runSummarize(CLI.Summarize.Scope, CLI.Summarize.Target, CLI.Summarize.Style))
	case "wiki":
		exitOn("wiki", runWiki(CLI.Wiki.Out, !CLI.Wiki.NoDiagrams, CLI.Wiki.TOC))
	case "slides":
		exitOn("slides", runSlides(CLI.Slides.Flavor, CLI.Slides.Out, CLI.Slides.Sections, CLI.Slides.Export))
	case "publish":
		exitOn("publish", runPublish())
	case "build-all":
		exitOn("build-all", runBuildAll())
	case "serve":
		exitOn("serve", runServe())
	case "watch":
		exitOn("watch", runWatch())
	case "init":
		exitOn("init", config.Init(CLI.Config, CLI.Init.Force))
	case "version":
		fmt.Printf("repowiki %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	default:
		slog.Error("Unknown command", slog.String("command", kctx.Command()))
		os.Exit(1)
	}
}

func exitOn(command string, err error) {
	if err != nil {
		slog.Error("Command failed", slog.String("command", command), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(CLI.Config)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Run(ctx)
	}()

	select {
	case err := <-errChan:
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := d.Stop(stopCtx); stopErr != nil {
			slog.Warn("Shutdown incomplete", slog.String("error", stopErr.Error()))
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Stop(stopCtx); err != nil {
			slog.Warn("Shutdown incomplete", slog.String("error", err.Error()))
		}
		return nil
	}
}
