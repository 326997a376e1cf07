package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// NewResource builds the Resource every MeterProvider/TracerProvider in
// this broker is scoped by: service.instance.id = incarnationID,
// service.namespace = clusterID, per spec.md §6.
func NewResource(ctx context.Context, clusterID, incarnationID string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", "kafkabroker"),
			attribute.String("service.namespace", clusterID),
			attribute.String("service.instance.id", incarnationID),
		),
	)
}

// NewProviders wires an SDK MeterProvider and TracerProvider against res
// with no metric reader and no span processor attached; cmd/broker/main.go
// adds none either, so nothing is exported.
func NewProviders(res *resource.Resource) (*metric.MeterProvider, *trace.TracerProvider) {
	mp := metric.NewMeterProvider(metric.WithResource(res))
	tp := trace.NewTracerProvider(trace.WithResource(res))
	return mp, tp
}
