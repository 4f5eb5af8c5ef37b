package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/cartrecords/internal/domain"
	pkgkafka "github.com/utafrali/cartrecords/pkg/kafka"
)

// Kafka topic constants for cart domain events.
const (
	TopicCartUpdated = "cartrecords.cart.updated"
	TopicCartDeleted = "cartrecords.cart.deleted"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from this service.
const SourceCartRecords = "cartrecords"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID      string         `json:"cartId"`
	UserID      string         `json:"userId"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"itemCount"`
	TotalAmount float64        `json:"totalAmount"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CartDeletedData is the payload for a cart.deleted event.
type CartDeletedData struct {
	CartID string `json:"cartId"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart record service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event with a snapshot of the cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}

	data := CartUpdatedData{
		CartID:      cart.ID,
		UserID:      cart.UserID,
		Items:       items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	}

	evt, err := pkgkafka.NewEvent(TopicCartUpdated, cart.ID, AggregateTypeCart, SourceCartRecords, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, evt); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.String("user_id", cart.UserID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return nil
}

// PublishCartDeleted publishes a cart.deleted event.
func (p *Producer) PublishCartDeleted(ctx context.Context, cartID string) error {
	data := CartDeletedData{CartID: cartID}

	evt, err := pkgkafka.NewEvent(TopicCartDeleted, cartID, AggregateTypeCart, SourceCartRecords, data)
	if err != nil {
		return fmt.Errorf("create cart.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartDeleted, evt); err != nil {
		return fmt.Errorf("publish cart.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.deleted event",
		slog.String("cart_id", cartID),
	)

	return nil
}
