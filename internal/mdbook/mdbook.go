// Package mdbook wraps the external mdbook binary used to render book
// sources into a static site.
package mdbook

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Build executes `mdbook build` inside outDir and reports whether a
// build actually ran.
//
// REPOWIKI_SKIP_MDBOOK=1 suppresses the run, REPOWIKI_RUN_MDBOOK=1 makes
// a missing binary an error, otherwise the build runs when mdbook is on
// PATH and a missing binary only warns (the markdown sources remain
// usable).
func Build(outDir string) (bool, error) {
	if os.Getenv("REPOWIKI_SKIP_MDBOOK") == "1" {
		slog.Debug("Skipping mdbook build (REPOWIKI_SKIP_MDBOOK=1)", logfields.Path(outDir))
		return false, nil
	}

	if _, err := exec.LookPath("mdbook"); err != nil {
		if os.Getenv("REPOWIKI_RUN_MDBOOK") == "1" {
			return false, fmt.Errorf("mdbook binary not found in PATH: %w", err)
		}
		slog.Warn("mdbook not found; leaving markdown sources unrendered", logfields.Path(outDir))
		return false, nil
	}

	cmd := exec.Command("mdbook", "build")
	cmd.Dir = outDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	slog.Info("Running mdbook to render site", logfields.Path(outDir))
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("mdbook build failed: %w", err)
	}
	return true, nil
}
