package analyzer

import (
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// OptionsFromConfig maps the loaded configuration onto analyzer Options.
func OptionsFromConfig(cfg *config.Config, rec metrics.Recorder) Options {
	return Options{
		MaxFileKB:       cfg.Analysis.MaxFileKB,
		Exclude:         cfg.Project.Exclude,
		EntrypointHints: cfg.Analysis.InferEntrypoints,
		Metrics:         rec,
	}
}
