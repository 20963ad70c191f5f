// Package observability wires the OpenTelemetry meter to a Prometheus
// exporter and defines the application counters.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Turn and speech outcomes recorded on the counters.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeNotFound        = "not_found"
	OutcomeProviderError   = "provider_error"
	OutcomeStoreError      = "store_error"
	OutcomeCacheHit        = "cache_hit"
)

// Metrics holds the application counters.
type Metrics struct {
	chatTurns      metric.Int64Counter
	speechRequests metric.Int64Counter
}

// Setup initializes the Prometheus exporter and returns the counters plus the
// handler to mount on /metrics.
func Setup() (*Metrics, http.Handler, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("ai-companion-demo/backend")

	chatTurns, err := meter.Int64Counter("chat_turns_total",
		metric.WithDescription("Chat turns submitted, by provider and outcome"))
	if err != nil {
		return nil, nil, err
	}

	speechRequests, err := meter.Int64Counter("speech_requests_total",
		metric.WithDescription("Speech synthesis requests, by outcome"))
	if err != nil {
		return nil, nil, err
	}

	return &Metrics{
		chatTurns:      chatTurns,
		speechRequests: speechRequests,
	}, promhttp.Handler(), nil
}

// RecordTurn counts one chat turn. Safe on a nil receiver.
func (m *Metrics) RecordTurn(ctx context.Context, provider, outcome string) {
	if m == nil || m.chatTurns == nil {
		return
	}
	m.chatTurns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordSpeech counts one speech synthesis request.
func (m *Metrics) RecordSpeech(ctx context.Context, outcome string) {
	if m == nil || m.speechRequests == nil {
		return
	}
	m.speechRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
