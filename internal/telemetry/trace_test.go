package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a provider backed by an in-memory exporter
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	res, err := createResource(DefaultConfig())
	if err != nil {
		t.Fatalf("createResource failed: %v", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	providerMu.Lock()
	globalProvider = tp
	providerMu.Unlock()

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		providerMu.Lock()
		globalProvider = nil
		providerMu.Unlock()
	})

	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartCommandSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	spanCtx, span := StartCommandSpan(ctx, "users list")
	if spanCtx == ctx {
		t.Error("expected new context with span, got same context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "command.users list" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "command.users list")
	}
	if v, ok := attrValue(spans[0].Attributes, "component"); !ok || v.AsString() != "cli" {
		t.Errorf("component attribute = %v, want cli", v)
	}
}

func TestStartGatewaySpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartGatewaySpan(context.Background(), "GET", "/admin/users")
	RecordStatus(span, 200)
	RecordSuccess(span)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]

	if got.Name != "GET /admin/users" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.SpanKind != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", got.SpanKind)
	}
	if v, ok := attrValue(got.Attributes, "http.route"); !ok || v.AsString() != "/admin/users" {
		t.Errorf("http.route = %v", v)
	}
	if v, ok := attrValue(got.Attributes, "http.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("http.status_code = %v", v)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status.Code)
	}
}

func TestRecordError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartGatewaySpan(context.Background(), "DELETE", "/admin/gems/7")
	RecordError(span, errors.New("Failed to delete gem"))
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status.Code)
	}
	if got.Status.Description != "Failed to delete gem" {
		t.Errorf("description = %q", got.Status.Description)
	}
	if len(got.Events) == 0 {
		t.Error("expected an exception event")
	}
}

func TestRecordErrorWithNil(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartCommandSpan(context.Background(), "version")
	RecordError(span, nil)
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code == codes.Error {
		t.Error("nil error must not mark the span as failed")
	}
}
