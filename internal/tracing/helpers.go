package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// Instrumentation scope names.
const (
	tracerName      = "chronoscope"
	dbTracerName    = "chronoscope/db"
	cacheTracerName = "chronoscope/redis"
)

// DBOperation represents the type of database operation being traced.
type DBOperation string

const (
	DBOperationQuery  DBOperation = "query"
	DBOperationInsert DBOperation = "insert"
	DBOperationUpdate DBOperation = "update"
	DBOperationDelete DBOperation = "delete"
	DBOperationExec   DBOperation = "exec"
)

// endFunc records err, if any, on span and ends it.
func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartDBSpan creates a client span for a Postgres operation named
// "<operation> <table>". The returned function ends the span.
//
//	ctx, endSpan := tracing.StartDBSpan(ctx, "chronoscope_gallery_images", tracing.DBOperationInsert)
//	defer func() { endSpan(err) }()
func StartDBSpan(ctx context.Context, table string, operation DBOperation) (context.Context, func(error)) {
	spanName := string(operation)
	if table != "" {
		spanName = spanName + " " + table
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", string(operation)),
		),
	)
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}

	return ctx, endFunc(span)
}

// StartRedisSpan creates a client span for a Redis command on key.
func StartRedisSpan(ctx context.Context, command, key string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "redis "+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", command),
			attribute.String("db.redis.key", key),
		),
	)
	return ctx, endFunc(span)
}

// StartSpan creates an internal span with optional attributes.
//
//	ctx, endSpan := tracing.StartSpan(ctx, "scene.generate", tracing.CoordinateAttributes(c)...)
//	defer func() { endSpan(err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, endFunc(span)
}

// CoordinateAttributes describes a spacetime coordinate on a span.
func CoordinateAttributes(c spacetime.Coordinates) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("chronoscope.latitude", c.Spatial.Latitude),
		attribute.Float64("chronoscope.longitude", c.Spatial.Longitude),
		attribute.Int("chronoscope.year", c.Temporal.Year),
		attribute.Int("chronoscope.month", c.Temporal.Month),
		attribute.Int("chronoscope.day", c.Temporal.Day),
		attribute.Int("chronoscope.hour", c.Temporal.Hour),
		attribute.Int("chronoscope.minute", c.Temporal.Minute),
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
