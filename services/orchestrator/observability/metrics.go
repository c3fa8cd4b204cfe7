// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// orchestrator.
//
// # Description
//
// This package implements Prometheus metrics for monitoring guarded chat and
// validation operations. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Verdict counters by quality tier
//   - Warning counters
//   - Confidence score and validation latency histograms
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "petrel"

// Subsystem for guard engine metrics
const guardSubsystem = "guardrails"

// GuardMetrics holds all Prometheus metrics for guard engine operations.
//
// # Description
//
// Provides counters and histograms for monitoring validation volume and
// verdict quality. Initialize once at startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type GuardMetrics struct {
	// RequestsTotal counts guarded requests by endpoint and status.
	// Labels: endpoint (chat, validate), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// VerdictsTotal counts verdicts by quality tier and pass result.
	// Labels: quality (high_confidence, ..., error), passed (true, false)
	VerdictsTotal *prometheus.CounterVec

	// WarningsTotal counts individual warnings emitted by the engine.
	// Labels: endpoint
	WarningsTotal *prometheus.CounterVec

	// ConfidenceScore observes the confidence score distribution.
	// Labels: endpoint
	ConfidenceScore *prometheus.HistogramVec

	// ValidationDurationSeconds measures the guard engine latency.
	// Labels: endpoint
	ValidationDurationSeconds *prometheus.HistogramVec

	// ErrorsTotal counts errors by type and endpoint.
	// Labels: endpoint, error_code (retrieval_error, llm_error, validation, internal)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of GuardMetrics.
// Initialized by InitMetrics(). Nil when metrics are disabled.
var DefaultMetrics *GuardMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once at
// application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *GuardMetrics {
	DefaultMetrics = &GuardMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "requests_total",
				Help:      "Total guarded requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		VerdictsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "verdicts_total",
				Help:      "Total verdicts by quality tier and pass result",
			},
			[]string{"quality", "passed"},
		),

		WarningsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "warnings_total",
				Help:      "Total warnings emitted by the guard engine",
			},
			[]string{"endpoint"},
		),

		ConfidenceScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "confidence_score",
				Help:      "Distribution of verdict confidence scores",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"endpoint"},
		),

		ValidationDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "validation_duration_seconds",
				Help:      "Guard engine validation latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"endpoint"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: guardSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by type and endpoint",
			},
			[]string{"endpoint", "error_code"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeRetrieval indicates document retrieval failure.
	ErrorCodeRetrieval ErrorCode = "retrieval_error"

	// ErrorCodeLLMError indicates LLM API failure.
	ErrorCodeLLMError ErrorCode = "llm_error"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointChat is the guarded RAG chat endpoint.
	EndpointChat Endpoint = "chat"

	// EndpointValidate is the standalone validation endpoint.
	EndpointValidate Endpoint = "validate"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
func (m *GuardMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a categorized error.
func (m *GuardMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordVerdict records the outcome of one guard engine validation.
//
// # Inputs
//
//   - endpoint: The endpoint that produced the verdict.
//   - quality: The verdict's quality tier.
//   - passed: Whether the verdict passed.
//   - confidence: The verdict's confidence score.
//   - warnings: Number of warnings on the verdict.
func (m *GuardMetrics) RecordVerdict(endpoint Endpoint, quality string, passed bool,
	confidence float64, warnings int) {

	passedLabel := "false"
	if passed {
		passedLabel = "true"
	}
	m.VerdictsTotal.WithLabelValues(quality, passedLabel).Inc()
	m.ConfidenceScore.WithLabelValues(string(endpoint)).Observe(confidence)
	if warnings > 0 {
		m.WarningsTotal.WithLabelValues(string(endpoint)).Add(float64(warnings))
	}
}

// RecordValidationDuration records the guard engine latency.
func (m *GuardMetrics) RecordValidationDuration(endpoint Endpoint, seconds float64) {
	m.ValidationDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}
