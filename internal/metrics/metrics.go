package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mlm_platform"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	activations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "activations_total",
			Help:      "Membership activation attempts by path and result.",
		},
		[]string{"path", "result"},
	)

	commissionCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "commission_credits_total",
			Help:      "Level commissions credited, by hop.",
		},
		[]string{"hop"},
	)

	uplineTruncations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "upline_truncations_total",
			Help:      "Upline walks cut short by a lookup or write failure.",
		},
		[]string{"stage"},
	)

	walkDepth = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "upline_walk_depth",
			Help:      "Number of ancestors visited per upline walk.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"stage"},
	)

	rewardUnlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "unlocks_total",
			Help:      "Reward tiers made claimable, by level.",
		},
		[]string{"level"},
	)

	rewardClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "claims_total",
			Help:      "Reward claim attempts by result.",
		},
		[]string{"result"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and success.",
		},
		[]string{"job", "success"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		activations,
		commissionCredits,
		uplineTruncations,
		walkDepth,
		rewardUnlocks,
		rewardClaims,
		jobRuns,
		jobDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordActivation records the outcome of an activation attempt.
func RecordActivation(path, result string) {
	activations.WithLabelValues(path, result).Inc()
}

// RecordCommission records a commission credited at the given hop.
func RecordCommission(hop int) {
	commissionCredits.WithLabelValues(strconv.Itoa(hop)).Inc()
}

// RecordUplineWalk records how far a walk got and whether it was truncated.
func RecordUplineWalk(stage string, depth int, truncated bool) {
	walkDepth.WithLabelValues(stage).Observe(float64(depth))
	if truncated {
		uplineTruncations.WithLabelValues(stage).Inc()
	}
}

// RecordRewardUnlock records a reward tier becoming claimable.
func RecordRewardUnlock(level int) {
	rewardUnlocks.WithLabelValues(strconv.Itoa(level)).Inc()
}

// RecordRewardClaim records the result of a claim attempt.
func RecordRewardClaim(result string) {
	rewardClaims.WithLabelValues(result).Inc()
}

// RecordJobRun records a scheduled job execution.
func RecordJobRun(job string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
