// Package config loads and validates the repowiki.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file probed when -c is not given.
const DefaultPath = "repowiki.toml"

// Config is the full application configuration.
type Config struct {
	Project   ProjectConfig   `toml:"project"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Summarize SummarizeConfig `toml:"summarize"`
	Site      SiteConfig      `toml:"site"`
	Slides    SlidesConfig    `toml:"slides"`
	Publish   PublishConfig   `toml:"publish"`
	Security  SecurityConfig  `toml:"security"`
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Events    EventsConfig    `toml:"events"`
	Watch     WatchConfig     `toml:"watch"`
}

// ProjectConfig identifies the repository under analysis.
type ProjectConfig struct {
	Name     string   `toml:"name"`
	RepoPath string   `toml:"repo-path"`
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
}

// AnalysisConfig tunes the index build.
type AnalysisConfig struct {
	MaxFileKB         int            `toml:"max-file-kb"`
	InferEntrypoints  []string       `toml:"infer-entrypoints"`
	ModuleConcurrency int            `toml:"module-concurrency"`
	Diagrams          DiagramsConfig `toml:"diagrams"`
}

// DiagramsConfig selects the diagram renderer and the types emitted into
// the wiki.
type DiagramsConfig struct {
	Renderer string   `toml:"renderer"`
	Types    []string `toml:"types"`
}

// SummarizeConfig selects the summarizer backend and style.
type SummarizeConfig struct {
	Mode        string  `toml:"mode"` // none|auto|local|remote
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	Style       string  `toml:"style"` // concise|detailed
}

// SiteConfig configures the wiki output.
type SiteConfig struct {
	OutDir string `toml:"out-dir"`
}

// SlidesConfig configures the slide deck output.
type SlidesConfig struct {
	Flavor string `toml:"flavor"` // mdbook-reveal|marp
	OutDir string `toml:"out-dir"`
}

// PublishConfig configures GitHub Pages publishing.
type PublishConfig struct {
	Mode   string `toml:"mode"` // docs|gh-pages
	Branch string `toml:"branch"`
}

// SecurityConfig gates outbound traffic and content handling.
type SecurityConfig struct {
	Offline      bool `toml:"offline"`
	PIIRedaction bool `toml:"pii-redaction"`
}

// ServerConfig tunes the JSON-RPC server.
type ServerConfig struct {
	RegistrySize int `toml:"registry-size"`
}

// StoreConfig configures the SQLite build-event store. An empty path
// disables it.
type StoreConfig struct {
	Path string `toml:"path"`
}

// EventsConfig configures the NATS build-event publisher.
type EventsConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce        duration `toml:"debounce"`
	RebuildInterval duration `toml:"rebuild-interval"`
	MetricsListen   string   `toml:"metrics-listen"`
}

// DebounceDuration returns the configured debounce window.
func (w WatchConfig) DebounceDuration() time.Duration { return time.Duration(w.Debounce) }

// RebuildIntervalDuration returns the periodic rebuild interval; zero means
// no periodic rebuild.
func (w WatchConfig) RebuildIntervalDuration() time.Duration {
	return time.Duration(w.RebuildInterval)
}

// duration decodes TOML strings like "2s" and the bare zero.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:     "Unnamed Project",
			RepoPath: ".",
			Include:  []string{"**/*"},
			Exclude:  []string{"**/node_modules/**", "**/dist/**", "**/.git/**"},
		},
		Analysis: AnalysisConfig{
			MaxFileKB:         512,
			ModuleConcurrency: 50,
			Diagrams: DiagramsConfig{
				Renderer: "mermaid",
				Types:    []string{"module-graph", "call-graph", "sequence", "deployment"},
			},
		},
		Summarize: SummarizeConfig{
			Mode:        "auto",
			Temperature: 0.2,
			Style:       "concise",
		},
		Site:     SiteConfig{OutDir: "./out/wiki"},
		Slides:   SlidesConfig{Flavor: "mdbook-reveal", OutDir: "./out/slides"},
		Publish:  PublishConfig{Mode: "docs", Branch: "gh-pages"},
		Security: SecurityConfig{Offline: true, PIIRedaction: true},
		Server:   ServerConfig{RegistrySize: 32},
		Events:   EventsConfig{URL: "nats://127.0.0.1:4222", Subject: "repowiki.builds"},
		Watch:    WatchConfig{Debounce: duration(2 * time.Second)},
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// environment variables in the raw content are expanded before decoding.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(raw))
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields an explicit file left empty.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Project.Name == "" {
		cfg.Project.Name = def.Project.Name
	}
	if cfg.Project.RepoPath == "" {
		cfg.Project.RepoPath = def.Project.RepoPath
	}
	if len(cfg.Project.Include) == 0 {
		cfg.Project.Include = def.Project.Include
	}
	if cfg.Analysis.MaxFileKB == 0 {
		cfg.Analysis.MaxFileKB = def.Analysis.MaxFileKB
	}
	if cfg.Analysis.ModuleConcurrency == 0 {
		cfg.Analysis.ModuleConcurrency = def.Analysis.ModuleConcurrency
	}
	if cfg.Analysis.Diagrams.Renderer == "" {
		cfg.Analysis.Diagrams.Renderer = def.Analysis.Diagrams.Renderer
	}
	if len(cfg.Analysis.Diagrams.Types) == 0 {
		cfg.Analysis.Diagrams.Types = def.Analysis.Diagrams.Types
	}
	if cfg.Summarize.Mode == "" {
		cfg.Summarize.Mode = def.Summarize.Mode
	}
	if cfg.Summarize.Style == "" {
		cfg.Summarize.Style = def.Summarize.Style
	}
	if cfg.Site.OutDir == "" {
		cfg.Site.OutDir = def.Site.OutDir
	}
	if cfg.Slides.Flavor == "" {
		cfg.Slides.Flavor = def.Slides.Flavor
	}
	if cfg.Slides.OutDir == "" {
		cfg.Slides.OutDir = def.Slides.OutDir
	}
	if cfg.Publish.Mode == "" {
		cfg.Publish.Mode = def.Publish.Mode
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = def.Publish.Branch
	}
	if cfg.Server.RegistrySize == 0 {
		cfg.Server.RegistrySize = def.Server.RegistrySize
	}
	if cfg.Events.URL == "" {
		cfg.Events.URL = def.Events.URL
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = def.Events.Subject
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = def.Watch.Debounce
	}
}

// Validate checks enum fields and numeric bounds.
func (c *Config) Validate() error {
	if c.Analysis.MaxFileKB <= 0 {
		return fmt.Errorf("analysis.max-file-kb must be positive, got %d", c.Analysis.MaxFileKB)
	}
	if c.Analysis.ModuleConcurrency <= 0 {
		return fmt.Errorf("analysis.module-concurrency must be positive, got %d", c.Analysis.ModuleConcurrency)
	}
	switch c.Analysis.Diagrams.Renderer {
	case "mermaid", "graphviz":
	default:
		return fmt.Errorf("analysis.diagrams.renderer must be mermaid or graphviz, got %q", c.Analysis.Diagrams.Renderer)
	}
	switch c.Summarize.Mode {
	case "none", "auto", "local", "remote":
	default:
		return fmt.Errorf("summarize.mode must be one of none, auto, local, remote, got %q", c.Summarize.Mode)
	}
	switch c.Summarize.Style {
	case "concise", "detailed":
	default:
		return fmt.Errorf("summarize.style must be concise or detailed, got %q", c.Summarize.Style)
	}
	switch c.Slides.Flavor {
	case "mdbook-reveal", "marp":
	default:
		return fmt.Errorf("slides.flavor must be mdbook-reveal or marp, got %q", c.Slides.Flavor)
	}
	switch c.Publish.Mode {
	case "docs", "gh-pages":
	default:
		return fmt.Errorf("publish.mode must be docs or gh-pages, got %q", c.Publish.Mode)
	}
	if _, err := os.Stat(c.Project.RepoPath); err != nil {
		return fmt.Errorf("project.repo-path %q: %w", c.Project.RepoPath, err)
	}
	return nil
}
