package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/repowiki/internal/analyzer"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// repoWatcher watches the repository tree and feeds change triggers into
// the daemon's debounce loop. fsnotify does not recurse, so directories
// are added at startup and again whenever one is created.
type repoWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	filter   *analyzer.PathFilter
	skipDirs []string
	triggers chan<- string
}

func newRepoWatcher(cfg *config.Config, triggers chan<- string) (*repoWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Project.RepoPath)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	// Output directories must never retrigger the build that wrote them.
	var skipDirs []string
	for _, dir := range []string{cfg.Site.OutDir, cfg.Slides.OutDir} {
		if abs, err := filepath.Abs(dir); err == nil {
			skipDirs = append(skipDirs, abs)
		}
	}

	w := &repoWatcher{
		watcher:  watcher,
		root:     root,
		filter:   analyzer.NewPathFilter(cfg.Project.Exclude),
		skipDirs: skipDirs,
		triggers: triggers,
	}
	if err := w.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *repoWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Cannot watch directory", logfields.Path(path), logfields.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Cannot watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *repoWatcher) skipDir(path string) bool {
	if filepath.Base(path) == ".git" {
		return true
	}
	for _, dir := range w.skipDirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return w.excluded(path)
}

// excluded applies the project exclusion globs to the root-relative path.
func (w *repoWatcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	return w.filter.Excluded(filepath.ToSlash(rel))
}

func (w *repoWatcher) run(ctx context.Context) {
	slog.Info("Watching repository", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *repoWatcher) handle(event fsnotify.Event) {
	if w.skipPath(event.Name) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Cannot watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
	}

	if event.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
		select {
		case w.triggers <- "fs":
		default:
		}
	}
}

// skipPath filters events the same way the walker filters files.
func (w *repoWatcher) skipPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return true
		}
	}
	for _, dir := range w.skipDirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return w.excluded(path)
}

func (w *repoWatcher) close() error {
	return w.watcher.Close()
}
