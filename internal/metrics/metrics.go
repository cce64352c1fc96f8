// Package metrics exposes Prometheus metrics for the auth subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal counts credential-stage outcomes. outcome: completed,
	// mfa_required, trusted_bypass, failed.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netnest_auth_logins_total",
			Help: "Total number of credential login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// VerificationsTotal counts second-factor attempts. method: totp,
	// recovery. outcome: success, failed.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netnest_auth_verifications_total",
			Help: "Total number of second-factor verification attempts",
		},
		[]string{"method", "outcome"},
	)

	// TrustedDevicesIssued counts trusted-device issuances.
	TrustedDevicesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netnest_auth_trusted_devices_issued_total",
			Help: "Total number of trusted devices issued",
		},
	)

	// RecoveryCodesGenerated counts recovery-code batch generations.
	RecoveryCodesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netnest_auth_recovery_batches_generated_total",
			Help: "Total number of recovery code batches generated",
		},
	)

	// ActivityWriteFailures counts activity entries dropped because the
	// store rejected them. The write is best-effort; this is the only
	// place the loss is visible.
	ActivityWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netnest_auth_activity_write_failures_total",
			Help: "Total number of activity log writes that failed",
		},
	)

	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netnest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
