// Package analyzer builds the repository index: a sequential walk over the
// source tree that filters, classifies and reads each file, feeding the
// language heuristics from internal/lang. Concurrency lives downstream in
// the section pipeline; the walk itself is deliberately single-threaded.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/lang"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// ErrRootUnreadable marks the one fatal analysis failure: the repository
// root itself cannot be enumerated. Every per-file error is downgraded to
// a warning instead.
var ErrRootUnreadable = errors.New("repository root unreadable")

// Options configures one Analyzer.
type Options struct {
	// MaxFileKB is the per-file size ceiling; larger files are skipped
	// with a warning.
	MaxFileKB int
	// Exclude lists glob patterns (PathFilter dialect) matched against
	// root-relative paths.
	Exclude []string
	// EntrypointHints are extra relative paths probed as entry points.
	EntrypointHints []string
	// Metrics receives build observations; nil means no-op.
	Metrics metrics.Recorder
}

// Analyzer walks a repository tree and assembles an immutable Index.
type Analyzer struct {
	filter    *PathFilter
	maxFileKB int
	hints     []string
	metrics   metrics.Recorder
}

// New constructs an Analyzer. A zero MaxFileKB falls back to 512.
func New(opts Options) *Analyzer {
	if opts.MaxFileKB <= 0 {
		opts.MaxFileKB = 512
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Analyzer{
		filter:    NewPathFilter(opts.Exclude),
		maxFileKB: opts.MaxFileKB,
		hints:     opts.EntrypointHints,
		metrics:   rec,
	}
}

// Analyze walks root in filesystem order and returns the built index.
// Per-file failures (unreadable, oversize) are logged and skipped; only an
// unreadable root aborts. Cancellation is honored between files.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*index.Index, error) {
	start := time.Now()

	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}

	ix := &index.Index{
		ID:           uuid.NewString(),
		RepoPath:     root,
		Dependencies: make(map[string][]string),
	}
	langSet := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
			}
			slog.Warn("Skipping unreadable tree entry", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if a.filter.Excluded(rel) {
			a.metrics.IncFileSkipped(metrics.SkipExcluded)
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			slog.Warn("Skipping file without stat info", logfields.File(rel), logfields.Error(infoErr))
			a.metrics.IncFileSkipped(metrics.SkipUnreadable)
			return nil
		}
		if info.Size()/1024 > int64(a.maxFileKB) {
			slog.Warn("Skipping oversize file",
				logfields.File(rel),
				slog.Int64("size_kb", info.Size()/1024),
				slog.Int("max_kb", a.maxFileKB))
			a.metrics.IncFileSkipped(metrics.SkipOversize)
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(rel), ".")
		l := lang.ForExtension(ext)
		if l == nil {
			a.metrics.IncFileSkipped(metrics.SkipUnsupported)
			return nil
		}
		// Classification alone registers the language, so a file that
		// later fails to read still counts toward the distinct set.
		langSet[l.Tag] = true

		raw, readErr := os.ReadFile(p)
		if readErr != nil {
			slog.Warn("Skipping unreadable file",
				logfields.File(rel),
				logfields.Language(l.Tag),
				logfields.Error(readErr))
			a.metrics.IncFileSkipped(metrics.SkipUnreadable)
			return nil
		}
		content := string(raw)

		deps := l.ExtractDeps(content)
		isModule := l.IsModule(rel)
		name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

		ix.Files = append(ix.Files, index.FileRecord{
			Path:         rel,
			Name:         name,
			Language:     l.Tag,
			Size:         len(content),
			Dependencies: deps,
			IsModule:     isModule,
			Content:      content,
		})
		if isModule {
			ix.Modules = append(ix.Modules, index.ModuleRecord{
				Path:         rel,
				Name:         name,
				Language:     l.Tag,
				Dependencies: append([]string(nil), deps...),
			})
		}
		for _, dep := range deps {
			if _, ok := ix.Dependencies[dep]; !ok {
				ix.Dependencies[dep] = nil
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	ix.Languages = make([]string, 0, len(langSet))
	for tag := range langSet {
		ix.Languages = append(ix.Languages, tag)
	}
	sort.Strings(ix.Languages)

	ix.Entrypoints = inferEntrypoints(root, a.hints)
	ix.Stats = index.Stats{
		Files:     len(ix.Files),
		Languages: len(ix.Languages),
		Modules:   len(ix.Modules),
	}

	a.metrics.ObserveIndexBuild(time.Since(start), ix.Stats.Files, ix.Stats.Modules)
	slog.Info("Repository analyzed",
		logfields.IndexID(ix.ID),
		logfields.Repository(root),
		slog.Int("files", ix.Stats.Files),
		slog.Int("modules", ix.Stats.Modules),
		slog.Int("languages", ix.Stats.Languages),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return ix, nil
}
