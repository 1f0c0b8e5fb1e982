package metrics

import "time"

// ResultLabel enumerates task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Skip reason labels for files the walker leaves out of the index.
const (
	SkipExcluded    = "excluded"
	SkipOversize    = "oversize"
	SkipUnsupported = "unsupported"
	SkipUnreadable  = "unreadable"
)

// Recorder defines observability hooks for index builds and section
// generation. Implementations may forward to Prometheus, OpenTelemetry,
// etc. All methods must be safe for nil receivers when using the
// NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveIndexBuild(d time.Duration, files, modules int)
	IncFileSkipped(reason string)
	ObserveSectionRender(section string, d time.Duration, result ResultLabel)
	IncModuleTask(result ResultLabel)
	IncSearch()
	IncPublish(mode string, success bool)
	IncWatchRebuild(trigger string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveIndexBuild(time.Duration, int, int)                {}
func (NoopRecorder) IncFileSkipped(string)                                   {}
func (NoopRecorder) ObserveSectionRender(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncModuleTask(ResultLabel)                               {}
func (NoopRecorder) IncSearch()                                              {}
func (NoopRecorder) IncPublish(string, bool)                                 {}
func (NoopRecorder) IncWatchRebuild(string)                                  {}
