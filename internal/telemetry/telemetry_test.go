package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestStartRequestRecordsAndFinishes(t *testing.T) {
	mp := metric.NewMeterProvider()
	tp := trace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	tel, err := New(mp, tp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, finish := tel.StartRequest(context.Background(), RequestAttrs{
		APIKey:        18,
		APIVersion:    3,
		CorrelationID: 1,
		APIName:       "ApiVersions",
		ClusterID:     "cluster-1",
		Peer:          "127.0.0.1:9092",
	}, 32)
	if ctx == nil {
		t.Fatal("expected a non-nil context")
	}
	finish(64, nil)
}

func TestNewResourceSetsScopeAttributes(t *testing.T) {
	res, err := NewResource(context.Background(), "cluster-1", "incarnation-1")
	if err != nil {
		t.Fatalf("NewResource: %v", err)
	}
	found := map[string]bool{}
	for _, kv := range res.Attributes() {
		found[string(kv.Key)] = true
	}
	for _, key := range []string{"service.name", "service.namespace", "service.instance.id"} {
		if !found[key] {
			t.Errorf("expected resource attribute %q", key)
		}
	}
}
