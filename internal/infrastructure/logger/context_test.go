package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func contextWithSpan(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func fieldMap(entry observer.LoggedEntry) map[string]interface{} {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	l, _ := observed()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithRequestIDAndActor(t *testing.T) {
	l, logs := observed()

	ctx, reqLogger := WithRequestID(context.Background(), l, "req-123")
	ctx, actorLogger := WithActor(ctx, reqLogger, "payment@sopwer.id")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "payment@sopwer.id", GetActor(ctx))
	assert.Same(t, actorLogger, FromContext(ctx))

	actorLogger.Info("hello")
	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "payment@sopwer.id", fields["actor"])
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActor(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestGetTraceAndSpanID(t *testing.T) {
	ctx := contextWithSpan(t)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", GetSpanID(ctx))
}

func TestL_AddsTraceFields(t *testing.T) {
	l, logs := observed()
	ctx := WithContext(contextWithSpan(t), l)

	L(ctx).Info("submitted", zap.String("payment_entry", "pe-1"))

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "pe-1", fields["payment_entry"])
}

func TestL_RequestIDNotDuplicated(t *testing.T) {
	l, logs := observed()
	ctx, _ := WithRequestID(context.Background(), l, "req-1")

	L(ctx).Warn("once")

	require.Equal(t, 1, logs.Len())
	count := 0
	for _, f := range logs.All()[0].Context {
		if f.Key == "request_id" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWithLogger_AddsRequestID(t *testing.T) {
	l, logs := observed()
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-9")

	WithLogger(ctx, l).With(zap.Int("n", 1)).Error("failed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "req-9", fieldMap(entry)["request_id"])
	assert.EqualValues(t, 1, fieldMap(entry)["n"])
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.Debug("nothing")
	})
	assert.NotNil(t, cl.Zap())
}
