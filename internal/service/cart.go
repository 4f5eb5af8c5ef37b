package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/cartrecords/internal/dispatch"
	"github.com/utafrali/cartrecords/internal/domain"
	"github.com/utafrali/cartrecords/internal/faker"
	"github.com/utafrali/cartrecords/internal/repository"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
)

// EventPublisher publishes cart lifecycle events. Satisfied by
// event.Producer.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartDeleted(ctx context.Context, cartID string) error
}

// MaxFakeCarts bounds a single fake-cart generation request.
const MaxFakeCarts = 10_000

// Config holds the behavioral knobs of the cart service.
type Config struct {
	// CreateIfMissing controls the AddItem policy: when true, adding an item
	// for a user without a cart creates the cart; when false the operation
	// fails with a not-found error. AddOrIncreaseItem always creates.
	CreateIfMissing bool
}

// CartService exposes cart CRUD and the item-mutation operations. Each
// mutation exists in two forms with identical semantics: one runs on the
// caller's goroutine, the other runs on the shared worker pool while the
// caller blocks for the result.
type CartService struct {
	store    repository.CartStore
	pool     dispatch.Dispatcher
	producer EventPublisher
	faker    *faker.Generator
	logger   *slog.Logger
	cfg      Config
}

// NewCartService creates a new cart service.
func NewCartService(
	store repository.CartStore,
	pool dispatch.Dispatcher,
	producer EventPublisher,
	logger *slog.Logger,
	cfg Config,
) *CartService {
	return &CartService{
		store:    store,
		pool:     pool,
		producer: producer,
		faker:    faker.New(),
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateCart persists a new cart. Missing fields are filled with generated
// test data: a blank user ID gets a generated one, an empty item list gets
// between one and nine generated items.
func (s *CartService) CreateCart(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart == nil {
		cart = &domain.Cart{}
	}
	if cart.UserID == "" {
		cart.UserID = s.faker.UserID()
	}
	if len(cart.Items) == 0 {
		cart.Items = s.faker.Cart().Items
	}

	stored, err := s.store.Create(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	s.publishUpdated(ctx, stored)

	s.logger.InfoContext(ctx, "cart created",
		slog.String("cart_id", stored.ID),
		slog.String("user_id", stored.UserID),
		slog.Int("items", len(stored.Items)),
	)

	return stored, nil
}

// GetCart retrieves a cart by its ID.
func (s *CartService) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	return s.store.GetByID(ctx, id)
}

// UpdateCart replaces the user ID and items of an existing cart wholesale.
// Fails with a not-found error when the ID is absent.
func (s *CartService) UpdateCart(ctx context.Context, id string, newState *domain.Cart) (*domain.Cart, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	if newState == nil {
		return nil, apperrors.InvalidInput("cart body is required")
	}

	cart, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cart.UserID = newState.UserID
	cart.Items = newState.Items

	stored, err := s.store.Save(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, stored)

	s.logger.InfoContext(ctx, "cart updated",
		slog.String("cart_id", stored.ID),
		slog.String("user_id", stored.UserID),
	)

	return stored, nil
}

// DeleteCart removes a cart by ID. Deleting an absent ID is not an error.
func (s *CartService) DeleteCart(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("cart id is required")
	}

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if deleted {
		if err := s.producer.PublishCartDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.deleted event",
				slog.String("cart_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "cart deleted", slog.String("cart_id", id))
	}

	return nil
}

// GetCartByUserID retrieves the first cart found for the given user ID.
func (s *CartService) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.store.GetByUserID(ctx, userID)
}

// ListAll returns every stored cart.
func (s *CartService) ListAll(ctx context.Context) ([]*domain.Cart, error) {
	return s.store.ListAll(ctx)
}

// ListDistinctUserIDs returns the set of user IDs that have carts.
func (s *CartService) ListDistinctUserIDs(ctx context.Context) ([]string, error) {
	return s.store.ListDistinctUserIDs(ctx)
}

// PlaceholderItem returns a generated item, used by the boundary layer when a
// mutation request arrives without a body.
func (s *CartService) PlaceholderItem() domain.CartItem {
	return s.faker.Item()
}

// GenerateFakeCarts creates count generated carts, fanning the inserts out
// through the worker pool and waiting for all of them to finish.
func (s *CartService) GenerateFakeCarts(ctx context.Context, count int) error {
	if count < 1 {
		return apperrors.InvalidInput("count must be at least 1")
	}
	if count > MaxFakeCarts {
		return apperrors.InvalidInput(fmt.Sprintf("count must not exceed %d", MaxFakeCarts))
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			_, err := s.pool.RunAwait(ctx, func(ctx context.Context) (*domain.Cart, error) {
				return s.store.Create(ctx, s.faker.Cart())
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate fake carts: %w", err)
	}

	s.logger.InfoContext(ctx, "generated fake carts", slog.Int("count", count))
	return nil
}

// publishUpdated publishes a cart.updated event, logging failures without
// failing the operation.
func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}
