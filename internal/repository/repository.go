package repository

import (
	"context"

	"github.com/utafrali/cartrecords/internal/domain"
)

// CartStore defines the persistence contract for cart records. Carts are keyed
// by their store-assigned ID and looked up by user ID. Each call performs a
// single round trip; there is no caching in front of the store.
type CartStore interface {
	// Create assigns an ID, persists the cart, and returns the stored record.
	Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)

	// GetByID retrieves a cart by its ID. Returns pkg/errors.ErrNotFound
	// (wrapped) when no cart has that ID.
	GetByID(ctx context.Context, id string) (*domain.Cart, error)

	// GetByUserID retrieves the first cart found for the given user ID. No
	// ordering is guaranteed if duplicate carts exist for the user.
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// Save replaces an existing record by ID. It is update-only: saving a
	// cart whose ID is absent fails with a not-found error.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)

	// DeleteByID removes a cart by ID, reporting whether a record was removed.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// ListAll returns every stored cart.
	ListAll(ctx context.Context) ([]*domain.Cart, error)

	// ListDistinctUserIDs returns the set of user IDs that have carts.
	ListDistinctUserIDs(ctx context.Context) ([]string, error)
}
