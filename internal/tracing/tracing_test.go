package tracing

import (
	"context"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: DefaultServiceName,
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected tracing to be disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled provider error = %v", err)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing service name", Config{Enabled: true, SamplingRate: 0.1}},
		{"negative rate", Config{ServiceName: DefaultServiceName, Enabled: true, SamplingRate: -0.1}},
		{"rate above one", Config{ServiceName: DefaultServiceName, Enabled: true, SamplingRate: 1.5}},
		{"unsupported exporter", Config{ServiceName: DefaultServiceName, Enabled: true, ExporterType: "zipkin", SamplingRate: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewProvider_ValidConfig(t *testing.T) {
	tests := []struct {
		name         string
		exporterType string
		samplingRate float64
		endpoint     string
	}{
		{"otlp-http with 10% sampling", ExporterOTLPHTTP, 0.1, "localhost:4318"},
		{"otlp-grpc with 100% sampling", ExporterOTLPGRPC, 1.0, "localhost:4317"},
		{"default exporter with 0% sampling", "", 0.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(context.Background(), Config{
				ServiceName:    DefaultServiceName,
				ServiceVersion: "test",
				Enabled:        true,
				Environment:    "test",
				ExporterType:   tt.exporterType,
				OTLPEndpoint:   tt.endpoint,
				SamplingRate:   tt.samplingRate,
				InsecureMode:   true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !provider.IsEnabled() {
				t.Error("expected tracing to be enabled")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				t.Errorf("unexpected shutdown error: %v", err)
			}
		})
	}
}

func TestProvider_Tracer(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:  DefaultServiceName,
		Enabled:      true,
		ExporterType: ExporterOTLPHTTP,
		SamplingRate: 1.0,
		InsecureMode: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	_, span := provider.Tracer("test-tracer").Start(context.Background(), "test-span")
	if !span.SpanContext().IsSampled() {
		t.Error("expected span to be sampled at rate 1.0")
	}
	span.End()
}

func TestProvider_TracerWhenDisabled(t *testing.T) {
	provider := &Provider{}
	if provider.Tracer("x") == nil {
		t.Fatal("expected a fallback tracer")
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		got := newSampler(tt.rate).Description()
		want := "ParentBased{root:" + tt.want
		if len(got) < len(want) || got[:len(want)] != want {
			t.Errorf("newSampler(%v).Description() = %q, want prefix %q", tt.rate, got, want)
		}
	}
}
