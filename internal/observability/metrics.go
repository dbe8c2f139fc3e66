package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentq"

type moduleMetrics struct {
	queueSize      prometheus.Gauge
	enqueueTotal   prometheus.Counter
	completedTotal *prometheus.CounterVec
	taskDuration   prometheus.Histogram
	submitTotal    *prometheus.CounterVec

	agentsSpawned prometheus.Counter
	registrySize  prometheus.Gauge

	commandTotal    *prometheus.CounterVec
	commandDuration prometheus.Histogram

	replyTotal    *prometheus.CounterVec
	replyDuration *prometheus.HistogramVec

	memoryWriteDuration prometheus.Histogram
	memoryQueryDuration prometheus.Histogram
	memoryRecordsTotal  prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			queueSize: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "queue_size",
					Help:      "Tasks waiting in the queue.",
				},
			),
			enqueueTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "enqueue_total",
					Help:      "Total tasks enqueued.",
				},
			),
			completedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "completed_total",
					Help:      "Total tasks completed by status.",
				},
				[]string{"status"},
			),
			taskDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "task_duration_seconds",
					Help:      "Task execution duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			submitTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "submit_total",
					Help:      "Total task submissions by source.",
				},
				[]string{"source"},
			),
			agentsSpawned: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "agents_spawned_total",
					Help:      "Total agents spawned by the supervisor.",
				},
			),
			registrySize: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "agent_registry_size",
					Help:      "Agents currently held by the supervisor registry.",
				},
			),
			commandTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "command_total",
					Help:      "Total shell commands by outcome class.",
				},
				[]string{"outcome"},
			),
			commandDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "command_duration_seconds",
					Help:      "Shell command duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			replyTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "reply_total",
					Help:      "Total remote replies by provider and status.",
				},
				[]string{"provider", "status"},
			),
			replyDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "reply_duration_seconds",
					Help:      "Remote reply duration in seconds by provider.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			memoryWriteDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "memory_write_duration_seconds",
					Help:      "Memory log insert duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			memoryQueryDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "memory_query_duration_seconds",
					Help:      "Memory log query duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			memoryRecordsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "memory_records_total",
					Help:      "Total records written to the memory log.",
				},
			),
		}

		prometheus.MustRegister(
			m.queueSize,
			m.enqueueTotal,
			m.completedTotal,
			m.taskDuration,
			m.submitTotal,
			m.agentsSpawned,
			m.registrySize,
			m.commandTotal,
			m.commandDuration,
			m.replyTotal,
			m.replyDuration,
			m.memoryWriteDuration,
			m.memoryQueryDuration,
			m.memoryRecordsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordQueueEnqueue(queueSize int) {
	m := getMetrics()
	m.enqueueTotal.Inc()
	m.queueSize.Set(float64(queueSize))
}

func SetQueueSize(queueSize int) {
	getMetrics().queueSize.Set(float64(queueSize))
}

func RecordQueueCompletion(duration time.Duration, success bool, queueSize int) {
	m := getMetrics()
	m.completedTotal.WithLabelValues(statusLabel(success)).Inc()
	m.taskDuration.Observe(duration.Seconds())
	m.queueSize.Set(float64(queueSize))
}

// RecordSubmit counts a submission from a task source (cli, batch, inbox, schedule).
func RecordSubmit(source string) {
	getMetrics().submitTotal.WithLabelValues(source).Inc()
}

func RecordAgentSpawn(registrySize int) {
	m := getMetrics()
	m.agentsSpawned.Inc()
	m.registrySize.Set(float64(registrySize))
}

func RecordCommand(outcome string, duration time.Duration) {
	m := getMetrics()
	m.commandTotal.WithLabelValues(outcome).Inc()
	m.commandDuration.Observe(duration.Seconds())
}

func RecordReply(provider, status string, duration time.Duration) {
	m := getMetrics()
	m.replyTotal.WithLabelValues(provider, status).Inc()
	m.replyDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordMemoryWrite(duration time.Duration, success bool) {
	m := getMetrics()
	m.memoryWriteDuration.Observe(duration.Seconds())
	if success {
		m.memoryRecordsTotal.Inc()
	}
}

func RecordMemoryQuery(duration time.Duration) {
	getMetrics().memoryQueryDuration.Observe(duration.Seconds())
}
