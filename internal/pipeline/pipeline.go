// Package pipeline runs section generation over a built index: every
// section is an independent task, the per-module section fans out one task
// per module under a concurrency cap, and results always come back in the
// caller's section order. The index is shared read-only across all tasks;
// collaborators are constructed fresh per task and never shared.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// SectionErrorKind enumerates structured section error categories.
type SectionErrorKind string

const (
	// SectionErrorFatal aborts the whole pipeline run: a missing section
	// is a build defect.
	SectionErrorFatal SectionErrorKind = "fatal"
	// SectionErrorWarning marks a degraded-but-usable result, used for
	// failed per-module subtasks whose fragments are dropped.
	SectionErrorWarning SectionErrorKind = "warning"
)

// SectionError is a structured error carrying category, the section it
// belongs to, and the underlying cause.
type SectionError struct {
	Kind    SectionErrorKind
	Section string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("%s section %s: %v", e.Kind, e.Section, e.Err)
}
func (e *SectionError) Unwrap() error { return e.Err }

func newFatalSectionError(section string, err error) *SectionError {
	return &SectionError{Kind: SectionErrorFatal, Section: section, Err: err}
}

// Section describes one unit of generated document content. Exactly one of
// Render and PerModule must be set: Render produces the whole section in a
// single task, PerModule produces one fragment per module record with the
// fragments concatenated after Header in module order.
//
// The collaborator value C (summarizer, diagrammer, whatever the caller
// composes) is built by the runner's factory once per task. Renderers must
// treat the index as read-only.
type Section[C any] struct {
	Name      string
	Render    func(ctx context.Context, ix *index.Index, c C) (string, error)
	Header    string
	PerModule func(ctx context.Context, ix *index.Index, m index.ModuleRecord, c C) (string, error)
}

// SectionResult is one rendered section.
type SectionResult struct {
	Name    string
	Content string
}

// DefaultModuleConcurrency bounds in-flight per-module tasks when the
// runner is configured with a non-positive cap.
const DefaultModuleConcurrency = 50

// Runner executes section lists against an index.
type Runner[C any] struct {
	// NewCollaborators builds the per-task collaborator value. Called
	// once per section task and once per module task so no instance is
	// ever shared across goroutines.
	NewCollaborators func() C
	// ModuleConcurrency caps in-flight module tasks; <=0 means
	// DefaultModuleConcurrency. Ordinary section tasks are not capped,
	// their count is the caller-controlled section list length.
	ModuleConcurrency int
	// Metrics receives render observations; nil means no-op.
	Metrics metrics.Recorder
}

// Run dispatches every section as an independent task and returns the
// rendered sections in exactly the order given, never dispatch or
// completion order. Any ordinary section failure fails the whole run with
// a fatal SectionError and no partial result; a failed module subtask only
// drops that module's fragment. In-flight siblings are not canceled on
// failure, the run waits for all of them before returning. Cancelling ctx
// fails tasks still waiting for a dispatch slot.
func (r *Runner[C]) Run(ctx context.Context, ix *index.Index, sections []Section[C]) ([]SectionResult, error) {
	rec := r.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	results := runOrdered(ctx, sections, len(sections), func(s Section[C]) (string, error) {
		start := time.Now()
		content, err := r.renderSection(ctx, ix, s, rec)
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailed
		}
		rec.ObserveSectionRender(s.Name, time.Since(start), result)
		return content, err
	})

	out := make([]SectionResult, len(sections))
	for i, res := range results {
		if res.Err != nil {
			return nil, newFatalSectionError(sections[i].Name, res.Err)
		}
		out[i] = SectionResult{Name: sections[i].Name, Content: res.Value}
	}
	return out, nil
}

func (r *Runner[C]) renderSection(ctx context.Context, ix *index.Index, s Section[C], rec metrics.Recorder) (string, error) {
	if s.PerModule != nil {
		return r.renderModules(ctx, ix, s, rec), nil
	}
	c := r.NewCollaborators()
	return s.Render(ctx, ix, c)
}

// renderModules fans out one task per module record under the semaphore
// cap and concatenates fragments in module order. Module failures are soft:
// logged, counted, fragment omitted.
func (r *Runner[C]) renderModules(ctx context.Context, ix *index.Index, s Section[C], rec metrics.Recorder) string {
	limit := r.ModuleConcurrency
	if limit <= 0 {
		limit = DefaultModuleConcurrency
	}

	fragments := runOrdered(ctx, ix.Modules, limit, func(m index.ModuleRecord) (string, error) {
		c := r.NewCollaborators()
		return s.PerModule(ctx, ix, m, c)
	})

	var b strings.Builder
	b.WriteString(s.Header)
	for i, frag := range fragments {
		if frag.Err != nil {
			rec.IncModuleTask(metrics.ResultFailed)
			slog.Warn("Module section task failed; fragment omitted",
				logfields.Section(s.Name),
				logfields.Module(ix.Modules[i].Name),
				logfields.Error(frag.Err))
			continue
		}
		rec.IncModuleTask(metrics.ResultSuccess)
		b.WriteString(frag.Value)
	}
	return b.String()
}
