package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/cartrecords/internal/domain"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
)

// CartStore is an in-process repository.CartStore used as the development
// driver and in hermetic tests. Records are deep-copied on the way in and out
// so callers never share item slices with the store.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*domain.Cart)}
}

func (s *CartStore) Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	stored := cart.Clone()
	stored.ID = uuid.New().String()

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Items == nil {
		stored.Items = []domain.CartItem{}
	}

	s.mu.Lock()
	s.carts[stored.ID] = stored
	s.mu.Unlock()

	return stored.Clone(), nil
}

func (s *CartStore) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil, apperrors.NotFound("cart", id)
	}
	return cart.Clone(), nil
}

func (s *CartStore) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cart := range s.carts {
		if cart.UserID == userID {
			return cart.Clone(), nil
		}
	}
	return nil, apperrors.NotFoundMsg("cart not found for user " + userID)
}

func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.carts[cart.ID]
	if !ok {
		return nil, apperrors.NotFound("cart", cart.ID)
	}

	stored := cart.Clone()
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	if stored.Items == nil {
		stored.Items = []domain.CartItem{}
	}
	s.carts[stored.ID] = stored

	return stored.Clone(), nil
}

func (s *CartStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[id]; !ok {
		return false, nil
	}
	delete(s.carts, id)
	return true, nil
}

func (s *CartStore) ListAll(ctx context.Context) ([]*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]*domain.Cart, 0, len(s.carts))
	for _, cart := range s.carts {
		carts = append(carts, cart.Clone())
	}
	return carts, nil
}

func (s *CartStore) ListDistinctUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.carts))
	ids := make([]string, 0, len(s.carts))
	for _, cart := range s.carts {
		if _, ok := seen[cart.UserID]; ok {
			continue
		}
		seen[cart.UserID] = struct{}{}
		ids = append(ids, cart.UserID)
	}
	return ids, nil
}
