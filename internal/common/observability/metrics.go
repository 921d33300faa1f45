// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"infinz-leadgen/internal/common/logger"

	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter used for business metrics.
// A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider   *metric.MeterProvider
	emiCounter      otelmetric.Int64Counter
	submissions     otelmetric.Int64Counter
	stepDuration    otelmetric.Float64Histogram
	loanAmountTotal otelmetric.Float64Counter
}

// New registers an OpenTelemetry Prometheus exporter and builds the meter.
// Dotted instrument names are exported with underscores and unit/_total
// suffixes, e.g. wizard_step_duration_milliseconds. Exporter options allow
// tests to pass a private registry and are applied after that default.
func New(serviceName string, log logger.Logger, opts ...otelprom.Option) *Observability {
	opts = append([]otelprom.Option{
		otelprom.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	}, opts...)
	exporter, err := otelprom.New(opts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	emiCounter, _ := meter.Int64Counter(
		"emi.calculations",
		otelmetric.WithDescription("Number of EMI calculations"),
	)

	submissions, _ := meter.Int64Counter(
		"loan.submissions",
		otelmetric.WithDescription("Loan form submissions by outcome"),
	)

	stepDuration, _ := meter.Float64Histogram(
		"wizard.step.duration",
		otelmetric.WithDescription("Wizard step processing duration"),
		otelmetric.WithUnit("ms"),
	)

	loanAmountTotal, _ := meter.Float64Counter(
		"loan.amount.requested",
		otelmetric.WithDescription("Sum of requested loan amounts on successful submissions"),
	)

	return &Observability{
		meterProvider:   provider,
		emiCounter:      emiCounter,
		submissions:     submissions,
		stepDuration:    stepDuration,
		loanAmountTotal: loanAmountTotal,
	}
}

func (o *Observability) RecordEMICalculation(ctx context.Context, loanType, status string) {
	if o == nil || o.emiCounter == nil {
		return
	}
	o.emiCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("loan_type", loanType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordSubmission(ctx context.Context, loanType, outcome string, amount float64) {
	if o == nil || o.submissions == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("loan_type", loanType),
		attribute.String("outcome", outcome),
	)
	o.submissions.Add(ctx, 1, attrs)
	if outcome == "success" && o.loanAmountTotal != nil {
		o.loanAmountTotal.Add(ctx, amount, otelmetric.WithAttributes(attribute.String("loan_type", loanType)))
	}
}

func (o *Observability) RecordStepDuration(ctx context.Context, step string, duration time.Duration, status string) {
	if o == nil || o.stepDuration == nil {
		return
	}
	o.stepDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
