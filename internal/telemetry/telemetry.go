// Package telemetry wires the broker's OpenTelemetry meter and tracer
// (spec.md §6 Observability): a counter and three histograms scoped by
// service.instance.id/service.namespace, and per-request spans named by
// API.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the instruments the dispatch engine touches once per
// request (spec.md §4.D step 5).
type Telemetry struct {
	tracer trace.Tracer

	apiRequests     metric.Int64Counter
	requestSize     metric.Int64Histogram
	responseSize    metric.Int64Histogram
	requestDuration metric.Float64Histogram
}

// New builds a Telemetry against the given MeterProvider/TracerProvider,
// both scoped by the caller to service.instance.id = incarnationID and
// service.namespace = clusterID via Resource attributes at provider
// construction time (see cmd/broker/main.go).
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Telemetry, error) {
	meter := mp.Meter("github.com/shake-karrot/kafkabroker")

	apiRequests, err := meter.Int64Counter("api_requests",
		metric.WithDescription("count of API requests dispatched, by api_key/api_version"))
	if err != nil {
		return nil, err
	}
	requestSize, err := meter.Int64Histogram("request_size",
		metric.WithDescription("request body size in bytes"), metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	responseSize, err := meter.Int64Histogram("response_size",
		metric.WithDescription("response body size in bytes"), metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	requestDuration, err := meter.Float64Histogram("request_duration",
		metric.WithDescription("time from request decode to response encode"), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:          tp.Tracer("github.com/shake-karrot/kafkabroker"),
		apiRequests:     apiRequests,
		requestSize:     requestSize,
		responseSize:    responseSize,
		requestDuration: requestDuration,
	}, nil
}

// RequestAttrs is the set of attribute values every request span and
// metric observation carries, per spec.md §6's attribute-key list.
type RequestAttrs struct {
	APIKey        int16
	APIVersion    int16
	CorrelationID int32
	APIName       string
	ClusterID     string
	Peer          string
	Extra         []attribute.KeyValue // API-specific: transactional_id, group_id, records, ...
}

func (a RequestAttrs) kvs() []attribute.KeyValue {
	kvs := []attribute.KeyValue{
		attribute.Int64("api_key", int64(a.APIKey)),
		attribute.Int64("api_version", int64(a.APIVersion)),
		attribute.Int64("correlation_id", int64(a.CorrelationID)),
		attribute.String("api_name", a.APIName),
		attribute.String("cluster_id", a.ClusterID),
		attribute.String("peer", a.Peer),
	}
	return append(kvs, a.Extra...)
}

// StartRequest opens a span named after the API, records the request size
// and increments the request counter, and returns a finish function the
// caller defers; finish records response size and duration, then ends the
// span.
func (t *Telemetry) StartRequest(ctx context.Context, attrs RequestAttrs, requestSize int) (context.Context, func(responseSize int, err error)) {
	kvs := attrs.kvs()
	ctx, span := t.tracer.Start(ctx, attrs.APIName, trace.WithAttributes(kvs...))

	start := time.Now()
	t.requestSize.Record(ctx, int64(requestSize), metric.WithAttributes(kvs...))
	t.apiRequests.Add(ctx, 1, metric.WithAttributes(kvs...))

	return ctx, func(responseSize int, err error) {
		defer span.End()
		if err != nil {
			span.RecordError(err)
		}
		t.responseSize.Record(ctx, int64(responseSize), metric.WithAttributes(kvs...))
		t.requestDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(kvs...))
	}
}
