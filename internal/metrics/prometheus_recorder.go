package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	indexDuration  prom.Histogram
	indexFiles     prom.Gauge
	indexModules   prom.Gauge
	filesSkipped   *prom.CounterVec
	sectionRender  *prom.HistogramVec
	sectionResults *prom.CounterVec
	moduleTasks    *prom.CounterVec
	searches       prom.Counter
	publishes      *prom.CounterVec
	watchRebuilds  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metric set on reg
// (a private registry when nil).
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		indexDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "index_build_duration_seconds",
			Help:      "Duration of repository index builds",
			Buckets:   prom.DefBuckets,
		}),
		indexFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "repowiki",
			Name:      "index_files",
			Help:      "File count of the most recent index build",
		}),
		indexModules: prom.NewGauge(prom.GaugeOpts{
			Namespace: "repowiki",
			Name:      "index_modules",
			Help:      "Module count of the most recent index build",
		}),
		filesSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "files_skipped_total",
			Help:      "Files left out of the index by reason",
		}, []string{"reason"}),
		sectionRender: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "section_render_duration_seconds",
			Help:      "Duration of individual section renders",
			Buckets:   prom.DefBuckets,
		}, []string{"section"}),
		sectionResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "section_results_total",
			Help:      "Section render counts by outcome",
		}, []string{"section", "result"}),
		moduleTasks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "module_tasks_total",
			Help:      "Per-module generation task counts by outcome",
		}, []string{"result"}),
		searches: prom.NewCounter(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "searches_total",
			Help:      "Index searches served",
		}),
		publishes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "publishes_total",
			Help:      "Publish operations by mode and result",
		}, []string{"mode", "result"}),
		watchRebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "watch_rebuilds_total",
			Help:      "Watch-mode rebuilds by trigger",
		}, []string{"trigger"}),
	}
	reg.MustRegister(pr.indexDuration, pr.indexFiles, pr.indexModules,
		pr.filesSkipped, pr.sectionRender, pr.sectionResults, pr.moduleTasks,
		pr.searches, pr.publishes, pr.watchRebuilds)
	return pr
}

func (p *PrometheusRecorder) ObserveIndexBuild(d time.Duration, files, modules int) {
	if p == nil || p.indexDuration == nil {
		return
	}
	p.indexDuration.Observe(d.Seconds())
	p.indexFiles.Set(float64(files))
	p.indexModules.Set(float64(modules))
}

func (p *PrometheusRecorder) IncFileSkipped(reason string) {
	if p == nil || p.filesSkipped == nil {
		return
	}
	p.filesSkipped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveSectionRender(section string, d time.Duration, result ResultLabel) {
	if p == nil || p.sectionRender == nil {
		return
	}
	p.sectionRender.WithLabelValues(section).Observe(d.Seconds())
	p.sectionResults.WithLabelValues(section, string(result)).Inc()
}

func (p *PrometheusRecorder) IncModuleTask(result ResultLabel) {
	if p == nil || p.moduleTasks == nil {
		return
	}
	p.moduleTasks.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSearch() {
	if p == nil || p.searches == nil {
		return
	}
	p.searches.Inc()
}

func (p *PrometheusRecorder) IncPublish(mode string, success bool) {
	if p == nil || p.publishes == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishes.WithLabelValues(mode, res).Inc()
}

func (p *PrometheusRecorder) IncWatchRebuild(trigger string) {
	if p == nil || p.watchRebuilds == nil {
		return
	}
	p.watchRebuilds.WithLabelValues(trigger).Inc()
}
