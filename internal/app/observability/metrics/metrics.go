package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	TokenVerificationsTotal metric.Int64Counter
	UpstreamRequestDuration metric.Float64Histogram
	UpstreamErrorsTotal     metric.Int64Counter
	PaymentsInitiatedTotal  metric.Int64Counter
	PaymentsConfirmedTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("mess-web")
		var err error
		m := &AppMetrics{}

		m.TokenVerificationsTotal, err = meter.Int64Counter(
			"token_verifications_total",
			metric.WithDescription("Total number of token verification attempts, by outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create token_verifications_total: %v", err)
		}

		m.UpstreamRequestDuration, err = meter.Float64Histogram(
			"upstream_request_duration_seconds",
			metric.WithDescription("Duration of calls to the mess backend in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_request_duration_seconds: %v", err)
		}

		m.UpstreamErrorsTotal, err = meter.Int64Counter(
			"upstream_errors_total",
			metric.WithDescription("Total number of failed calls to the mess backend"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_errors_total: %v", err)
		}

		m.PaymentsInitiatedTotal, err = meter.Int64Counter(
			"payments_initiated_total",
			metric.WithDescription("Total number of checkout sessions requested"),
			metric.WithUnit("{payment}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create payments_initiated_total: %v", err)
		}

		m.PaymentsConfirmedTotal, err = meter.Int64Counter(
			"payments_confirmed_total",
			metric.WithDescription("Total number of payment confirmations processed"),
			metric.WithUnit("{payment}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create payments_confirmed_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against the current
// MeterProvider on first use. Outside a configured provider the instruments
// are no-ops, which keeps tests free of setup.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
