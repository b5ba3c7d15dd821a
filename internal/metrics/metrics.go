package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trashtrackr_submissions_total",
		Help: "Report submissions by outcome",
	}, []string{"outcome"})
	SubmissionDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trashtrackr_submission_duration_ms",
		Help:    "Submission duration in milliseconds, store write included",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	})
	DuplicateSubmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trashtrackr_duplicate_submissions_total",
		Help: "Submissions rejected by the short-term duplicate filter",
	})
	ProjectionSnapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trashtrackr_projection_snapshots_total",
		Help: "Snapshots delivered by the store to the live projection",
	})
	ProjectionDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trashtrackr_projection_dropped_total",
		Help: "Documents dropped by normalization across all snapshots",
	})
	ProjectionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trashtrackr_projection_errors_total",
		Help: "Live subscription errors",
	})
	ProjectionRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trashtrackr_projection_records",
		Help: "Valid records in the latest snapshot",
	})
	JobActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trashtrackr_job_actions_total",
		Help: "Maintenance job actions by job and action (delete, rewrite)",
	}, []string{"job", "action"})
	JobFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trashtrackr_job_failures_total",
		Help: "Maintenance job per-document failures",
	}, []string{"job"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trashtrackr_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RedisErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trashtrackr_redis_errors_total",
		Help: "Redis command failures (duplicate filter, job lock)",
	})
)

func init() {
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(SubmissionDurationMs)
	prometheus.MustRegister(DuplicateSubmissionsTotal)
	prometheus.MustRegister(ProjectionSnapshotsTotal)
	prometheus.MustRegister(ProjectionDroppedTotal)
	prometheus.MustRegister(ProjectionErrorsTotal)
	prometheus.MustRegister(ProjectionRecords)
	prometheus.MustRegister(JobActionsTotal)
	prometheus.MustRegister(JobFailuresTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(RedisErrorsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 {API_BASE}/metrics，供 Prometheus 抓取；在服务入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
