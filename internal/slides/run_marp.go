package slides

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// exportMarp runs the marp CLI once per requested format. Gates match the
// mdbook policy: REPOWIKI_SKIP_MARP=1 suppresses the runs,
// REPOWIKI_RUN_MARP=1 makes a missing binary an error, otherwise a missing
// binary warns and the markdown deck remains the only artifact.
func exportMarp(deckPath, outDir string, export []string) ([]File, error) {
	if os.Getenv("REPOWIKI_SKIP_MARP") == "1" {
		slog.Debug("Skipping marp export (REPOWIKI_SKIP_MARP=1)", logfields.Path(outDir))
		return nil, nil
	}

	if _, err := exec.LookPath("marp"); err != nil {
		if os.Getenv("REPOWIKI_RUN_MARP") == "1" {
			return nil, fmt.Errorf("marp binary not found in PATH: %w", err)
		}
		slog.Warn("marp not found; leaving slides.md unexported", logfields.Path(outDir))
		return nil, nil
	}

	var files []File
	for _, format := range export {
		outFile := filepath.Join(outDir, "slides."+format)
		args := []string{deckPath, "--output", outFile}
		switch format {
		case "html":
			args = append(args, "--html")
		case "pdf":
			args = append(args, "--pdf")
		case "pptx":
			// pptx needs local file access for embedded assets.
			args = append(args, "--pptx", "--allow-local-files")
		default:
			slog.Warn("Unsupported slide export format", slog.String("format", format))
			continue
		}

		cmd := exec.Command("marp", args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		slog.Info("Exporting slides", slog.String("format", format), logfields.Path(outFile))
		if err := cmd.Run(); err != nil {
			// pptx export is flaky across marp versions; keep the build going.
			if format == "pptx" {
				slog.Warn("marp pptx export failed", logfields.Error(err))
				continue
			}
			return nil, fmt.Errorf("marp export (%s) failed: %w", format, err)
		}

		if _, err := os.Stat(outFile); err == nil {
			files = append(files, File{Format: format, Path: outFile})
		} else if format == "pptx" {
			slog.Warn("marp produced no pptx output", logfields.Path(outFile))
		}
	}
	return files, nil
}
