package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/cartrecords/internal/dispatch"
	"github.com/utafrali/cartrecords/internal/domain"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
)

// Execution mode labels.
const (
	modeSync  = "sync"
	modeAsync = "async"
)

// AddItem appends the item to the user's cart on the caller's goroutine.
// Whether a missing cart is created or a not-found error depends on the
// CreateIfMissing config. Duplicate product IDs are not merged here; merging
// is AddOrIncreaseItem's job.
func (s *CartService) AddItem(ctx context.Context, userID string, item *domain.CartItem) (*domain.Cart, error) {
	return s.run(ctx, "add_item", modeSync, dispatch.Inline{}, s.addItemTask(userID, item))
}

// AddItemAsync is AddItem offloaded to the worker pool; the caller still
// blocks for the result.
func (s *CartService) AddItemAsync(ctx context.Context, userID string, item *domain.CartItem) (*domain.Cart, error) {
	return s.run(ctx, "add_item", modeAsync, s.pool, s.addItemTask(userID, item))
}

// RemoveItem removes every item with the given product ID from the user's
// cart. Fails with a not-found error when the cart or the product is absent.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.run(ctx, "remove_item", modeSync, dispatch.Inline{}, s.removeItemTask(userID, productID))
}

// RemoveItemAsync is RemoveItem offloaded to the worker pool.
func (s *CartService) RemoveItemAsync(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.run(ctx, "remove_item", modeAsync, s.pool, s.removeItemTask(userID, productID))
}

// AddOrIncreaseItem merges the item into the user's cart: an existing entry
// with the same product ID has its quantity adjusted by the item's quantity
// (removed entirely when the sum drops to zero or below); a new entry is only
// inserted for a positive quantity. A missing cart is always created.
func (s *CartService) AddOrIncreaseItem(ctx context.Context, userID string, item *domain.CartItem) (*domain.Cart, error) {
	return s.run(ctx, "add_or_increase", modeSync, dispatch.Inline{}, s.addOrIncreaseTask(userID, item))
}

// AddOrIncreaseItemAsync is AddOrIncreaseItem offloaded to the worker pool.
func (s *CartService) AddOrIncreaseItemAsync(ctx context.Context, userID string, item *domain.CartItem) (*domain.Cart, error) {
	return s.run(ctx, "add_or_increase", modeAsync, s.pool, s.addOrIncreaseTask(userID, item))
}

// run executes a mutation task through the given dispatcher and records the
// outcome. Both dispatchers block until the task finishes, so the error a
// caller sees is classified identically regardless of where the task ran.
func (s *CartService) run(ctx context.Context, operation, mode string, d dispatch.Dispatcher, task dispatch.Task) (*domain.Cart, error) {
	cart, err := d.RunAwait(ctx, task)
	cartMutationsTotal.WithLabelValues(operation, mode, outcomeLabel(err)).Inc()

	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "cart mutation applied",
		slog.String("operation", operation),
		slog.String("mode", mode),
		slog.String("cart_id", cart.ID),
		slog.String("user_id", cart.UserID),
		slog.Int("items", len(cart.Items)),
	)

	return cart, nil
}

// addItemTask builds the fetch-append-persist unit of work for AddItem. Each
// task is a single-shot read-modify-write against the store with no locking;
// two tasks for the same user can race and the later persist wins.
func (s *CartService) addItemTask(userID string, item *domain.CartItem) dispatch.Task {
	return func(ctx context.Context) (*domain.Cart, error) {
		if item == nil {
			return nil, apperrors.InvalidInput("item is required")
		}
		if userID == "" {
			return nil, apperrors.InvalidInput("user id is required")
		}

		cart, err := s.store.GetByUserID(ctx, userID)
		switch {
		case err == nil:
			cart.Items = append(cart.Items, *item)
			return s.store.Save(ctx, cart)
		case errors.Is(err, apperrors.ErrNotFound):
			if !s.cfg.CreateIfMissing {
				return nil, apperrors.NotFoundMsg("cart not found for user " + userID)
			}
			cart = domain.NewCart(userID)
			cart.Items = append(cart.Items, *item)
			return s.store.Create(ctx, cart)
		default:
			return nil, err
		}
	}
}

// removeItemTask builds the unit of work for RemoveItem.
func (s *CartService) removeItemTask(userID, productID string) dispatch.Task {
	return func(ctx context.Context) (*domain.Cart, error) {
		if productID == "" {
			return nil, apperrors.InvalidInput("product id is required")
		}
		if userID == "" {
			return nil, apperrors.InvalidInput("user id is required")
		}

		cart, err := s.store.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		if cart.RemoveItems(productID) == 0 {
			return nil, apperrors.NotFoundMsg("item with product id " + productID + " not found in cart")
		}

		return s.store.Save(ctx, cart)
	}
}

// addOrIncreaseTask builds the unit of work for AddOrIncreaseItem.
func (s *CartService) addOrIncreaseTask(userID string, item *domain.CartItem) dispatch.Task {
	return func(ctx context.Context) (*domain.Cart, error) {
		if item == nil || item.ProductID == "" {
			return nil, apperrors.InvalidInput("item with a product id is required")
		}
		if item.Quantity == 0 {
			return nil, apperrors.InvalidInput("quantity must not be zero")
		}
		if userID == "" {
			return nil, apperrors.InvalidInput("user id is required")
		}

		cart, err := s.store.GetByUserID(ctx, userID)
		created := false
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrNotFound):
			cart = domain.NewCart(userID)
			created = true
		default:
			return nil, err
		}

		if idx := cart.FindItemIndex(item.ProductID); idx >= 0 {
			newQuantity := cart.Items[idx].Quantity + item.Quantity
			if newQuantity <= 0 {
				cart.RemoveItems(item.ProductID)
			} else {
				// Name and price of the existing entry are kept as-is.
				cart.Items[idx].Quantity = newQuantity
			}
		} else if item.Quantity > 0 {
			cart.Items = append(cart.Items, *item)
		}
		// A non-positive quantity against an absent product is a silent no-op.

		if created {
			return s.store.Create(ctx, cart)
		}
		return s.store.Save(ctx, cart)
	}
}
