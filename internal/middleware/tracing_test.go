package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestTracing_SpanNames(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		wantName string
	}{
		{http.MethodPost, "/scenes/render", "POST /scenes/render"},
		{http.MethodGet, "/gallery/2f9c", "GET /gallery/{id}"},
		{http.MethodDelete, "/journal/abc", "DELETE /journal/{id}"},
		{http.MethodGet, "/waypoints/apollo-11", "GET /waypoints/{id}"},
		{http.MethodGet, "/unmapped/path", "GET /unmapped/path"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			recorder := newRecordingProvider(t)
			handler := Tracing("test-service")(okHandler())
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("ended spans = %d, want 1", len(spans))
			}
			if got := spans[0].Name(); got != tt.wantName {
				t.Errorf("span name = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestTracing_SkipsProbes(t *testing.T) {
	recorder := newRecordingProvider(t)
	handler := Tracing("test-service")(okHandler())

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if n := len(recorder.Ended()); n != 0 {
		t.Errorf("ended spans = %d, want 0", n)
	}
}

func TestTracing_IDsInHandler(t *testing.T) {
	recorder := newRecordingProvider(t)

	var traceID, spanID string
	handler := Tracing("test-service")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = GetTraceID(r)
		spanID = GetSpanID(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/waypoints", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != traceID {
		t.Errorf("GetTraceID() = %q, want %q", traceID, got)
	}
	if got := spans[0].SpanContext().SpanID().String(); got != spanID {
		t.Errorf("GetSpanID() = %q, want %q", spanID, got)
	}
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	recorder := newRecordingProvider(t)
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevPropagator) })

	const parentTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
	req.Header.Set("traceparent", "00-"+parentTraceID+"-00f067aa0ba902b7-01")

	Tracing("test-service")(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != parentTraceID {
		t.Errorf("trace id = %q, want %q", got, parentTraceID)
	}
}

func TestGetTraceID_NoActiveSpan(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if got := GetTraceID(req); got != "" {
		t.Errorf("GetTraceID() = %q, want empty", got)
	}
	if got := GetSpanID(req); got != "" {
		t.Errorf("GetSpanID() = %q, want empty", got)
	}
}
