// Package daemon implements watch mode: an initial full build followed by
// filesystem-triggered and optionally scheduled rebuilds, with lifecycle
// events recorded to the store and published over NATS.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/repowiki/internal/analyzer"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/events"
	"git.home.luguber.info/inful/repowiki/internal/eventstore"
	"git.home.luguber.info/inful/repowiki/internal/linkcheck"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/server"
	"git.home.luguber.info/inful/repowiki/internal/slides"
	"git.home.luguber.info/inful/repowiki/internal/wiki"
)

// Daemon owns the watch-mode lifecycle.
type Daemon struct {
	cfg       *config.Config
	registry  *server.Registry
	metrics   metrics.Recorder
	store     eventstore.Store
	publisher *events.Publisher
	scheduler gocron.Scheduler
	watcher   *repoWatcher
	httpSrv   *http.Server

	// triggers feeds the debounce loop; one entry per raw change burst.
	triggers chan string

	// build runs one full rebuild; swapped out in tests.
	build func(ctx context.Context, trigger string)
}

// New wires the daemon from configuration. The event store and publisher
// are optional per config; a publisher connection failure degrades to a
// warning so watch mode works without a broker.
func New(cfg *config.Config) (*Daemon, error) {
	registry, err := server.NewRegistry(cfg.Server.RegistrySize)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		registry: registry,
		metrics:  metrics.NoopRecorder{},
		triggers: make(chan string, 64),
	}
	d.build = d.buildAll

	if cfg.Watch.MetricsListen != "" {
		reg := prometheus.NewRegistry()
		d.metrics = metrics.NewPrometheusRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		d.httpSrv = &http.Server{Addr: cfg.Watch.MetricsListen, Handler: mux}
	}

	if cfg.Store.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open build event store: %w", err)
		}
		d.store = store
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		slog.Warn("Event publisher unavailable; continuing without events", logfields.Error(err))
	} else {
		d.publisher = publisher
	}

	return d, nil
}

// Registry exposes the shared index registry.
func (d *Daemon) Registry() *server.Registry {
	return d.registry
}

// Run performs the initial build, then blocks handling filesystem and
// scheduled triggers until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.httpSrv != nil {
		go func() {
			slog.Info("Metrics listener started", slog.String("addr", d.httpSrv.Addr))
			if err := d.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics listener failed", logfields.Error(err))
			}
		}()
	}

	d.build(ctx, "initial")

	watcher, err := newRepoWatcher(d.cfg, d.triggers)
	if err != nil {
		return err
	}
	d.watcher = watcher
	go watcher.run(ctx)

	if interval := d.cfg.Watch.RebuildIntervalDuration(); interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				select {
				case d.triggers <- "scheduled":
				default:
				}
			}),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		scheduler.Start()
		d.scheduler = scheduler
		slog.Info("Periodic rebuild scheduled", slog.Duration("interval", interval))
	}

	d.debounceLoop(ctx)
	return nil
}

// debounceLoop coalesces trigger bursts into single rebuilds: a rebuild
// fires once the configured quiet window elapses with no new trigger.
func (d *Daemon) debounceLoop(ctx context.Context) {
	window := d.cfg.Watch.DebounceDuration()
	if window <= 0 {
		window = 2 * time.Second
	}

	timer := time.NewTimer(window)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		armed   bool
		trigger string
	)
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-d.triggers:
			trigger = reason
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(window)
			armed = true
		case <-timer.C:
			armed = false
			d.build(ctx, trigger)
		}
	}
}

// buildAll runs index → wiki → slides, recording lifecycle events. A
// failed build is logged and recorded; the daemon keeps watching.
func (d *Daemon) buildAll(ctx context.Context, trigger string) {
	buildID := uuid.NewString()
	repo := d.cfg.Project.RepoPath
	slog.Info("Build started",
		logfields.BuildID(buildID),
		slog.String("trigger", trigger),
		logfields.Path(repo))

	d.metrics.IncWatchRebuild(trigger)
	d.recordEvent(ctx, buildID, events.KindBuildStarted, "", trigger)

	ix, err := analyzer.New(analyzer.OptionsFromConfig(d.cfg, d.metrics)).Analyze(ctx, repo)
	if err != nil {
		d.buildFailed(ctx, buildID, "", fmt.Errorf("index: %w", err))
		return
	}
	handle := d.registry.Put(ix)
	d.recordEvent(ctx, buildID, events.KindIndexCompleted, handle,
		fmt.Sprintf("%d files, %d modules", ix.Stats.Files, ix.Stats.Modules))

	checker := &linkcheck.Checker{Events: d.publisher}
	wikiBuilder, err := wiki.NewBuilder(d.cfg, d.metrics, checker)
	if err != nil {
		d.buildFailed(ctx, buildID, handle, err)
		return
	}
	wikiRes, err := wikiBuilder.Build(ctx, ix, d.cfg.Site.OutDir, true, nil)
	if err != nil {
		d.buildFailed(ctx, buildID, handle, fmt.Errorf("wiki: %w", err))
		return
	}
	d.recordEvent(ctx, buildID, events.KindWikiBuilt, handle,
		fmt.Sprintf("%d pages", wikiRes.Pages))

	slideBuilder, err := slides.NewBuilder(d.cfg, d.metrics)
	if err != nil {
		d.buildFailed(ctx, buildID, handle, err)
		return
	}
	if _, err := slideBuilder.Build(ctx, ix, "", d.cfg.Slides.OutDir, nil, nil); err != nil {
		d.buildFailed(ctx, buildID, handle, fmt.Errorf("slides: %w", err))
		return
	}
	d.recordEvent(ctx, buildID, events.KindSlidesBuilt, handle, "")

	slog.Info("Build finished", logfields.BuildID(buildID), logfields.IndexID(handle))
}

func (d *Daemon) buildFailed(ctx context.Context, buildID, indexID string, err error) {
	slog.Error("Build failed", logfields.BuildID(buildID), logfields.Error(err))
	d.recordEvent(ctx, buildID, events.KindBuildFailed, indexID, err.Error())
}

func (d *Daemon) recordEvent(ctx context.Context, buildID, kind, indexID, detail string) {
	event := events.BuildEvent{
		BuildID: buildID,
		Kind:    kind,
		IndexID: indexID,
		Repo:    d.cfg.Project.RepoPath,
		Detail:  detail,
	}
	eventstore.Record(ctx, d.store, buildID, kind, event)
	events.WarnOnPublishError(d.publisher.PublishBuild(event))
}

// Stop releases all daemon resources. Call after Run returns.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics listener shutdown: %w", err))
		}
	}
	d.publisher.Close()
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event store: %w", err))
		}
	}
	return errors.Join(errs...)
}
