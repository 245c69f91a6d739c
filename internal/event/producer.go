package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/logger"
)

// Kafka topics for product domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
)

// AggregateTypeProduct tags every event published here.
const AggregateTypeProduct = "product"

// SourceCatalogService identifies this service as the event source.
const SourceCatalogService = "catalog-service"

// ProductData is the payload of product.created and product.updated events.
type ProductData struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int64           `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	IsActive      bool            `json:"is_active"`
	VariantCount  int             `json:"variant_count"`
	ImageCount    int             `json:"image_count"`
	SizeIDs       []int64         `json:"size_ids"`
	SubCategories []int64         `json:"sub_category_ids"`
}

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID int64 `json:"id"`
}

// Producer publishes product domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a producer that sends events through publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.ProductDetail) error {
	return p.publish(ctx, TopicProductCreated, product.ID, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.ProductDetail) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicProductDeleted, id, ProductDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic string, productID int64, data any) error {
	evt, err := pkgkafka.NewEvent(topic, AggregateTypeProduct, productID, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.Int64("product_id", productID),
	)
	return nil
}

func productData(d *domain.ProductDetail) ProductData {
	data := ProductData{
		ID:            d.ID,
		Name:          d.Name,
		Price:         d.Price,
		CategoryID:    d.CategoryID,
		CategoryName:  d.CategoryName,
		IsActive:      d.IsActive,
		VariantCount:  len(d.Variants),
		ImageCount:    len(d.Images),
		SizeIDs:       make([]int64, 0, len(d.Sizes)),
		SubCategories: make([]int64, 0, len(d.SubCategories)),
	}
	for _, s := range d.Sizes {
		data.SizeIDs = append(data.SizeIDs, s.ID)
	}
	for _, c := range d.SubCategories {
		data.SubCategories = append(data.SubCategories, c.ID)
	}
	return data
}
