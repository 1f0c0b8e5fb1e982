// Package summarize produces markdown summaries of an index at repo,
// package, module and file scope. The default backend is a static
// heuristic; a Gemini-backed remote summarizer can be selected by config
// when the deployment is not offline.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
)

// Summary scopes.
const (
	ScopeRepo    = "repo"
	ScopePackage = "package"
	ScopeModule  = "module"
	ScopeFile    = "file"
)

// Styles. Anything unrecognized is treated as concise.
const (
	StyleConcise  = "concise"
	StyleDetailed = "detailed"
)

// ErrUnknownScope is returned for scopes outside repo/package/module/file.
var ErrUnknownScope = errors.New("unknown summarize scope")

// ErrTargetNotFound is returned when the target path matches nothing in
// the index.
var ErrTargetNotFound = errors.New("summarize target not found in index")

// Artifact is a generated side output of a summary, e.g. a mermaid
// diagram source.
type Artifact struct {
	Type    string `json:"artifact_type"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Result is one summary.
type Result struct {
	ContentMD string     `json:"content_md"`
	Artifacts []Artifact `json:"artifacts"`
}

// Summarizer generates markdown for one scope of an index. Implementations
// are stateless and read the index only; a fresh value per task is cheap.
type Summarizer interface {
	Summarize(ctx context.Context, ix *index.Index, scope, target, style string) (*Result, error)
}

// New selects the backend per [summarize].mode:
//
//	none   - disabled stub emitting fixed minimal markdown
//	local  - static heuristic
//	remote - Gemini (fails without an API key)
//	auto   - Gemini when a key is present and the deployment is online,
//	         heuristic otherwise
func New(cfg *config.Config) (Summarizer, error) {
	switch cfg.Summarize.Mode {
	case "none":
		return disabled{}, nil
	case "local":
		return &Heuristic{}, nil
	case "remote":
		if cfg.Security.Offline {
			return nil, errors.New("summarize.mode remote conflicts with security.offline")
		}
		if os.Getenv("GEMINI_API_KEY") == "" {
			return nil, errors.New("summarize.mode remote requires GEMINI_API_KEY")
		}
		return newGemini(cfg), nil
	case "auto":
		if !cfg.Security.Offline && os.Getenv("GEMINI_API_KEY") != "" {
			return newGemini(cfg), nil
		}
		return &Heuristic{}, nil
	default:
		return nil, fmt.Errorf("unknown summarize mode %q", cfg.Summarize.Mode)
	}
}

// disabled emits a fixed placeholder so downstream pipelines keep working
// with summaries switched off.
type disabled struct{}

func (disabled) Summarize(_ context.Context, ix *index.Index, scope, target, _ string) (*Result, error) {
	switch scope {
	case ScopeRepo, ScopePackage, ScopeModule, ScopeFile:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	name := target
	if name == "" {
		name = ix.RepoPath
	}
	return &Result{ContentMD: fmt.Sprintf("# %s\n\nSummarization is disabled.\n", name)}, nil
}
