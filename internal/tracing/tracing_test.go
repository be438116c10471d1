package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	tr, err := InitTracing(Config{Enabled: false})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if GetTracer() != tr {
		t.Error("Expected global tracer to be the returned tracer")
	}

	_, span := tr.StartSpan(context.Background(), "noop")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Error("Expected no-op span to have an invalid span context")
	}
}

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(sr))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), "selection.filter")
	span.SetAttributes(StageAttributes(7, 4)...)
	RecordError(span, errors.New("boom"))
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != "selection.filter" {
		t.Errorf("Expected span name selection.filter, got %s", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("Expected error status, got %v", s.Status().Code)
	}

	attrs := map[string]int64{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	if attrs["offers.in"] != 7 || attrs["offers.out"] != 4 {
		t.Errorf("Unexpected attributes: %v", attrs)
	}
}
