package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/logger"
)

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evt *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, evt)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleDetail() *domain.ProductDetail {
	return &domain.ProductDetail{
		Product: domain.Product{
			ID:         7,
			Name:       "Basic Tee",
			Price:      decimal.RequireFromString("19.99"),
			CategoryID: 1,
			IsActive:   true,
		},
		CategoryName:  "Apparel",
		Variants:      []domain.Variant{{ID: 1}, {ID: 2}},
		Sizes:         []domain.ProductSize{{ID: 3, SizeName: "M"}},
		SubCategories: []domain.CategoryRef{{ID: 4, Name: "Shirts"}},
	}
}

func TestProducer_PublishProductCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, p.PublishProductCreated(ctx, sampleDetail()))

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicProductCreated, pub.topics[0])

	evt := pub.events[0]
	assert.Equal(t, "7", evt.AggregateID)
	assert.Equal(t, AggregateTypeProduct, evt.AggregateType)
	assert.Equal(t, "corr-1", evt.CorrelationID)

	var data ProductData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "Apparel", data.CategoryName)
	assert.Equal(t, 2, data.VariantCount)
	assert.Equal(t, []int64{3}, data.SizeIDs)
	assert.Equal(t, []int64{4}, data.SubCategories)
	assert.True(t, data.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestProducer_PublishProductDeleted(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())

	require.NoError(t, p.PublishProductDeleted(context.Background(), 9))
	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicProductDeleted, pub.topics[0])
	assert.Empty(t, pub.events[0].CorrelationID)

	var data ProductDeletedData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, int64(9), data.ID)
}

func TestProducer_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: pkgkafka.ErrBreakerOpen}
	p := NewProducer(pub, testLogger())

	err := p.PublishProductUpdated(context.Background(), sampleDetail())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgkafka.ErrBreakerOpen))
	assert.Contains(t, err.Error(), TopicProductUpdated)
}
