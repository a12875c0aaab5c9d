package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the message pipeline metrics shared by consumers and the
// recovery layer.
type Metrics struct {
	// Handler invocations by topic and result
	Handled *prometheus.CounterVec

	// Handler latency by topic
	HandleDuration *prometheus.HistogramVec

	// Offset commits that failed after a message was disposed of
	CommitFailures *prometheus.CounterVec

	// Processing attempts by topic, including retries
	Attempts *prometheus.CounterVec

	// Terminal dispositions by topic and state
	Dispositions *prometheus.CounterVec

	// Exception manager calls by operation and result
	ExceptionManagerCalls *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		Handled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_messages_handled_total",
			Help: "Messages handed to a consumer handler by topic and result",
		}, []string{"topic", "result"}),

		HandleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseprocessor_message_handle_duration_seconds",
			Help:    "Time spent handling one message, retries included",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),

		CommitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_offset_commit_failures_total",
			Help: "Offset commits that failed by topic",
		}, []string{"topic"}),

		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_processing_attempts_total",
			Help: "Processing attempts by topic and result",
		}, []string{"topic", "result"}),

		Dispositions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_message_dispositions_total",
			Help: "Final message states by topic",
		}, []string{"topic", "state"}),

		ExceptionManagerCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_exception_manager_calls_total",
			Help: "Exception manager calls by operation and result",
		}, []string{"operation", "result"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveHandled records one handler invocation.
func (m *Metrics) ObserveHandled(topic string, d time.Duration, err error) {
	if m != nil {
		m.Handled.WithLabelValues(topic, result(err)).Inc()
		m.HandleDuration.WithLabelValues(topic).Observe(d.Seconds())
	}
}

// IncrementCommitFailures records a failed offset commit.
func (m *Metrics) IncrementCommitFailures(topic string) {
	if m != nil {
		m.CommitFailures.WithLabelValues(topic).Inc()
	}
}

// IncrementAttempt records one processing attempt.
func (m *Metrics) IncrementAttempt(topic string, err error) {
	if m != nil {
		m.Attempts.WithLabelValues(topic, result(err)).Inc()
	}
}

// IncrementDisposition records the state a message finished in.
func (m *Metrics) IncrementDisposition(topic, state string) {
	if m != nil {
		m.Dispositions.WithLabelValues(topic, state).Inc()
	}
}

// IncrementExceptionManagerCall records one call to the exception manager.
func (m *Metrics) IncrementExceptionManagerCall(operation string, err error) {
	if m != nil {
		m.ExceptionManagerCalls.WithLabelValues(operation, result(err)).Inc()
	}
}
