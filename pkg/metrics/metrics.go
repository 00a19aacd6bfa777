// Package metrics provides Prometheus metrics for the migration tool.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationRunsTotal tracks validation runs by template and outcome
	ValidationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrator",
			Subsystem: "validation",
			Name:      "runs_total",
			Help:      "Total number of validation runs by template and outcome",
		},
		[]string{"template_id", "outcome"},
	)

	// ValidationRunDuration tracks validation run duration in seconds
	ValidationRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrator",
			Subsystem: "validation",
			Name:      "run_duration_seconds",
			Help:      "Duration of validation runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"template_id"},
	)

	// ValidationIssuesTotal tracks issues found per run by severity
	ValidationIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrator",
			Subsystem: "validation",
			Name:      "issues_total",
			Help:      "Total number of validation issues by severity",
		},
		[]string{"template_id", "severity"},
	)

	// SalesforceRequestsTotal tracks outbound Salesforce API requests
	SalesforceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrator",
			Subsystem: "salesforce",
			Name:      "requests_total",
			Help:      "Total number of outbound Salesforce API requests",
		},
		[]string{"operation", "status"},
	)

	// SalesforceRequestDuration tracks outbound Salesforce request duration
	SalesforceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrator",
			Subsystem: "salesforce",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound Salesforce API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// DescribeCacheHits tracks describe cache hits and misses
	DescribeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrator",
			Subsystem: "metadata",
			Name:      "describe_cache_total",
			Help:      "Describe cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrator",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrator",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordValidationRun records one completed validation run.
func RecordValidationRun(templateID, outcome string, durationSeconds float64) {
	ValidationRunsTotal.WithLabelValues(templateID, outcome).Inc()
	ValidationRunDuration.WithLabelValues(templateID).Observe(durationSeconds)
}

// RecordValidationIssues records the issue counts of one run.
func RecordValidationIssues(templateID string, errors, warnings int) {
	ValidationIssuesTotal.WithLabelValues(templateID, "error").Add(float64(errors))
	ValidationIssuesTotal.WithLabelValues(templateID, "warning").Add(float64(warnings))
}

// RecordSalesforceRequest records an outbound Salesforce API request.
func RecordSalesforceRequest(operation, status string, durationSeconds float64) {
	SalesforceRequestsTotal.WithLabelValues(operation, status).Inc()
	SalesforceRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish operation.
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
