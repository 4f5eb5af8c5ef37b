package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/cartrecords/internal/domain"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
)

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CartStore implements repository.CartStore backed by a MongoDB collection.
type CartStore struct {
	collection *mongo.Collection
}

// NewCartStore creates a MongoDB-backed cart store using the "carts" collection.
func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{collection: db.Collection("carts")}
}

// EnsureIndexes creates the user_id lookup index. The index is intentionally
// non-unique: the store does not enforce one cart per user, concurrent creates
// for the same user can produce duplicates.
func (s *CartStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create user_id index: %w", err)
	}
	return nil
}

// Create assigns an ID, stamps timestamps, and inserts the cart.
func (s *CartStore) Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	stored := cart.Clone()
	stored.ID = uuid.New().String()

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Items == nil {
		stored.Items = []domain.CartItem{}
	}

	if _, err := s.collection.InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	return stored, nil
}

// GetByID retrieves a cart by its ID.
func (s *CartStore) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	var cart domain.Cart
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("cart", id)
		}
		return nil, fmt.Errorf("get cart by id: %w", err)
	}
	return &cart, nil
}

// GetByUserID retrieves the first cart found for the given user ID.
func (s *CartStore) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundMsg("cart not found for user " + userID)
		}
		return nil, fmt.Errorf("get cart by user id: %w", err)
	}
	return &cart, nil
}

// Save replaces an existing cart by ID. Update-only: a missing ID is not-found.
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	stored := cart.Clone()
	stored.UpdatedAt = time.Now().UTC()
	if stored.Items == nil {
		stored.Items = []domain.CartItem{}
	}

	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": stored.ID}, stored)
	if err != nil {
		return nil, fmt.Errorf("replace cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.NotFound("cart", stored.ID)
	}

	return stored, nil
}

// DeleteByID removes a cart by ID, reporting whether a document was deleted.
func (s *CartStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete cart: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// ListAll returns every stored cart.
func (s *CartStore) ListAll(ctx context.Context) ([]*domain.Cart, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	defer cursor.Close(ctx)

	carts := []*domain.Cart{}
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("decode carts: %w", err)
	}
	return carts, nil
}

// ListDistinctUserIDs returns the set of user IDs that have carts.
func (s *CartStore) ListDistinctUserIDs(ctx context.Context) ([]string, error) {
	values, err := s.collection.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct user ids: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
