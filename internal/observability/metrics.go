package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codenest_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codenest_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codenest_http_inflight_requests",
		Help: "HTTP requests currently being served",
	})

	// Labels: language, kind ("none", "compile", "runtime", "timeout", "unavailable")
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codenest_executions_total",
		Help: "Sandbox executions by language and outcome",
	}, []string{"language", "kind"})

	executionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codenest_execution_duration_seconds",
		Help:    "Round-trip time of a sandbox call",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	})

	// Labels: result ("passed", "failed")
	testSuitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codenest_test_suites_total",
		Help: "Verified submissions by aggregate verdict",
	}, []string{"result"})

	// Labels: result ("passed", "failed", "error")
	testCasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codenest_test_cases_total",
		Help: "Individual test case verdicts",
	}, []string{"result"})

	levelUpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codenest_level_ups_total",
		Help: "Level-ups awarded",
	})

	topicCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codenest_topic_completions_total",
		Help: "First-time topic completions",
	})

	progressConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codenest_progress_conflicts_total",
		Help: "Optimistic concurrency conflicts on progress writes",
	})
)

func HTTPInflightInc() { httpInflight.Inc() }

func HTTPInflightDec() { httpInflight.Dec() }

func ObserveHTTP(method, route, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveExecution(language, kind string, d time.Duration) {
	executionsTotal.WithLabelValues(language, kind).Inc()
	executionDuration.Observe(d.Seconds())
}

func ObserveTestCase(result string) {
	testCasesTotal.WithLabelValues(result).Inc()
}

func ObserveTestSuite(allPassed bool) {
	if allPassed {
		testSuitesTotal.WithLabelValues("passed").Inc()
		return
	}
	testSuitesTotal.WithLabelValues("failed").Inc()
}

func ObserveLevelUp() { levelUpsTotal.Inc() }

func ObserveTopicCompletion() { topicCompletionsTotal.Inc() }

func ObserveProgressConflict() { progressConflictsTotal.Inc() }
