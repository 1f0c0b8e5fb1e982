// Package publish pushes generated wiki and slide output to GitHub Pages,
// either by copying into the repository's docs/ directory or by committing
// onto a pages branch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// ErrUnknownMode is returned for modes other than docs and gh-pages.
var ErrUnknownMode = errors.New("unknown publish mode")

// Publish modes.
const (
	ModeDocs    = "docs"
	ModeGHPages = "gh-pages"
)

// Result reports one publish run. Hint tells the operator what remains to
// be configured on the GitHub side.
type Result struct {
	Hint string
}

// Publisher publishes generated output.
type Publisher struct {
	metrics metrics.Recorder
}

func New(rec metrics.Recorder) *Publisher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Publisher{metrics: rec}
}

// Publish copies siteDir and slidesDir into the target repository per mode.
// Missing source directories are skipped, not errors, so a wiki-only or
// slides-only run publishes what exists.
func (p *Publisher) Publish(ctx context.Context, mode, siteDir, slidesDir, repoRoot, branch string) (*Result, error) {
	slog.Info("Publishing pages",
		logfields.Mode(mode),
		logfields.Path(repoRoot))

	var (
		res *Result
		err error
	)
	switch mode {
	case ModeDocs:
		res, err = p.publishDocs(siteDir, slidesDir, repoRoot)
	case ModeGHPages:
		res, err = p.publishBranch(ctx, siteDir, slidesDir, repoRoot, branch)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	p.metrics.IncPublish(mode, err == nil)
	return res, err
}

func (p *Publisher) publishDocs(siteDir, slidesDir, repoRoot string) (*Result, error) {
	docsDir := filepath.Join(repoRoot, "docs")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create docs dir: %w", err)
	}

	if dirExists(siteDir) {
		if err := copyTree(siteDir, docsDir); err != nil {
			return nil, fmt.Errorf("copy site into docs/: %w", err)
		}
		slog.Info("Site copied", logfields.Path(docsDir))
	}
	if dirExists(slidesDir) {
		dest := filepath.Join(docsDir, "slides")
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, fmt.Errorf("create docs/slides dir: %w", err)
		}
		if err := copyTree(slidesDir, dest); err != nil {
			return nil, fmt.Errorf("copy slides into docs/slides/: %w", err)
		}
		slog.Info("Slides copied", logfields.Path(dest))
	}

	return &Result{
		Hint: "Set the GitHub Pages source to 'main /docs' in the repository settings.",
	}, nil
}

func (p *Publisher) publishBranch(ctx context.Context, siteDir, slidesDir, repoRoot, branch string) (*Result, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoRoot, err)
	}

	// Stage the publishable tree before touching the working copy.
	staging, err := os.MkdirTemp("", "repowiki-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if dirExists(siteDir) {
		if err := copyTree(siteDir, staging); err != nil {
			return nil, fmt.Errorf("stage site: %w", err)
		}
	}
	if dirExists(slidesDir) {
		dest := filepath.Join(staging, "slides")
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, err
		}
		if err := copyTree(slidesDir, dest); err != nil {
			return nil, fmt.Errorf("stage slides: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := commitToBranch(repo, repoRoot, branch, staging); err != nil {
		return nil, err
	}

	return &Result{
		Hint: fmt.Sprintf("Published to branch %q; push it and select it as the GitHub Pages source.", branch),
	}, nil
}

// commitToBranch checks out branch (creating it when absent), replaces the
// working tree with the staged content and commits.
func commitToBranch(repo *git.Repository, repoRoot, branch, staging string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err != nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true}); err != nil {
			return fmt.Errorf("checkout branch %s: %w", branch, err)
		}
	}

	if err := clearWorktree(repoRoot); err != nil {
		return fmt.Errorf("clear worktree: %w", err)
	}
	if err := copyTree(staging, repoRoot); err != nil {
		return fmt.Errorf("copy staged content: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}
	commit, err := wt.Commit("Update GitHub Pages", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "repowiki",
			Email: "repowiki@localhost",
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}

	slog.Info("Pages committed",
		slog.String("branch", branch),
		slog.String("commit", commit.String()))
	return nil
}

// clearWorktree removes everything under root except the git directory.
func clearWorktree(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyTree recursively copies the contents of src into dest.
func copyTree(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return err
			}
			if err := copyTree(srcPath, destPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, destPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
