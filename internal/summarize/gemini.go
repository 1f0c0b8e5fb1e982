package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	genai "google.golang.org/genai"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

const defaultGeminiModel = "gemini-2.0-flash"

// ErrEmptyModelResponse is returned when the model answers with no
// candidates or an empty part.
var ErrEmptyModelResponse = errors.New("empty model response")

// Gemini rewrites the heuristic summary through the Gemini API. The
// heuristic output doubles as the prompt scaffold so the model always sees
// the same structural facts the offline path would emit.
type Gemini struct {
	model       string
	temperature float32
	heuristic   Heuristic
}

func newGemini(cfg *config.Config) *Gemini {
	model := cfg.Summarize.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{model: model, temperature: float32(cfg.Summarize.Temperature)}
}

func (g *Gemini) Summarize(ctx context.Context, ix *index.Index, scope, target, style string) (*Result, error) {
	base, err := g.heuristic.Summarize(ctx, ix, scope, target, style)
	if err != nil {
		return nil, err
	}

	// The client reads GEMINI_API_KEY itself with BackendGeminiAPI.
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	prompt := fmt.Sprintf(
		"Rewrite the following repository analysis as polished %s documentation in markdown. "+
			"Keep every heading, path and dependency name exactly as given; do not invent facts.\n\n%s",
		style, base.ContentMD)

	temp := g.temperature
	resp, err := cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: &temp},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyModelResponse
	}

	slog.Debug("Remote summary generated",
		logfields.Scope(scope),
		logfields.Mode("remote"),
		slog.String("model", g.model))

	return &Result{
		ContentMD: resp.Candidates[0].Content.Parts[0].Text,
		Artifacts: base.Artifacts,
	}, nil
}
