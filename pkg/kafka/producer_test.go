package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg).Get(key)
}

func TestNewEvent_Fields(t *testing.T) {
	event, err := NewEvent("catalog.product.created", "product", 42, "catalog", map[string]string{"name": "Basic Tee"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "42", event.AggregateID)
	assert.Equal(t, "product", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.JSONEq(t, `{"name":"Basic Tee"}`, string(event.Data))
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "product", 1, "catalog", make(chan int))
	require.Error(t, err)
}

func TestEvent_Chaining(t *testing.T) {
	event, err := NewEvent("x", "product", 1, "catalog", nil)
	require.NoError(t, err)

	assert.Same(t, event, event.WithCorrelationID("c-1").WithMetadata("policy", "merge"))
	assert.Equal(t, "c-1", event.CorrelationID)
	assert.Equal(t, "merge", event.Metadata["policy"])
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, testLogger())

	event, err := NewEvent("catalog.product.updated", "product", 7, "catalog", map[string]int{"variants": 2})
	require.NoError(t, err)
	event.WithCorrelationID("corr-7")

	require.NoError(t, p.Publish(context.Background(), "catalog.product.updated", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "catalog.product.updated", msg.Topic)
	assert.Equal(t, "7", string(msg.Key))
	assert.Equal(t, "catalog.product.updated", header(msg, "event_type"))
	assert.Equal(t, "catalog", header(msg, "source"))
	assert.Equal(t, "corr-7", header(msg, "correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	var data map[string]int
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, 2, data["variants"])
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := newProducer(w, nil, testLogger())
	event, _ := NewEvent("e", "product", 1, "catalog", nil)
	require.NoError(t, p.Publish(ctx, "t", event))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, testLogger())
	event, _ := NewEvent("e", "product", 1, "catalog", nil)

	err := p.Publish(context.Background(), "catalog.product.deleted", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to catalog.product.deleted")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, testLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "a", Value: []byte("1")}}}
	c := NewHeaderCarrier(&msg)

	assert.Equal(t, "1", c.Get("a"))
	assert.Empty(t, c.Get("missing"))

	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "t", nil))
}
