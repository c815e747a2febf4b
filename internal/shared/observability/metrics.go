package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ngreflect_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngreflect_files_parsed_total",
		Help: "Total number of source files parsed.",
	}, []string{"language"})

	BundlesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngreflect_bundles_analyzed_total",
		Help: "Total number of entry-point bundles analysed, by format and outcome.",
	}, []string{"format", "outcome"})

	BundleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ngreflect_bundle_seconds",
		Help:    "Time spent loading and reflecting over one bundle.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	ClassesFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngreflect_classes_found_total",
		Help: "Total number of class symbols recognised.",
	}, []string{"format"})

	DecoratorsFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngreflect_decorators_found_total",
		Help: "Total number of class decorators recovered.",
	}, []string{"format"})

	ProgramFiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ngreflect_program_files",
		Help:    "Number of files loaded into one bundle program.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngreflect_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
