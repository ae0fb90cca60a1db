package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidecast_jobs_processed_total",
		Help: "Total number of extraction jobs processed, by status",
	}, []string{"status"})

	JobStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slidecast_job_stage_duration_seconds",
		Help:    "Duration of slide extraction pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	SlidesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidecast_slides_extracted_total",
		Help: "Total number of slides accepted by the classifier across all jobs",
	})

	SlidesDeduplicatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidecast_slides_deduplicated_total",
		Help: "Total number of near-duplicate slides removed by the post-pass",
	})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidecast_frames_decoded_total",
		Help: "Total number of video frames decoded across all jobs",
	})

	ComparatorDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidecast_comparator_decisions_total",
		Help: "Slide comparator decisions, by deciding stage and outcome",
	}, []string{"stage", "outcome"})

	SceneBoundariesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidecast_scene_boundaries_total",
		Help: "Total number of detected scene boundaries across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slidecast_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidecast_retry_total",
		Help: "Total number of job retries",
	}, []string{"attempt"})
)
