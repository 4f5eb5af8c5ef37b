package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cartrecords/internal/domain"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
)

func testItem(productID string, quantity int) domain.CartItem {
	return domain.CartItem{
		ProductID:   productID,
		ProductName: "Rustic Steel Chair",
		Quantity:    quantity,
		Price:       49.99,
	}
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	store := NewCartStore()

	created, err := store.Create(context.Background(), domain.NewCart("111111111"))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "111111111", created.UserID)
	assert.NotNil(t, created.Items)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestCreate_DoesNotShareItemsWithCaller(t *testing.T) {
	store := NewCartStore()
	cart := domain.NewCart("111111111")
	cart.Items = append(cart.Items, testItem("SAVE-42-X7K", 1))

	created, err := store.Create(context.Background(), cart)
	require.NoError(t, err)

	cart.Items[0].Quantity = 99

	got, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestGetByID_NotFound(t *testing.T) {
	store := NewCartStore()

	_, err := store.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetByUserID(t *testing.T) {
	store := NewCartStore()
	_, err := store.Create(context.Background(), domain.NewCart("111111111"))
	require.NoError(t, err)

	got, err := store.GetByUserID(context.Background(), "111111111")
	require.NoError(t, err)
	assert.Equal(t, "111111111", got.UserID)

	_, err = store.GetByUserID(context.Background(), "222222222")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSave_UpdatesExisting(t *testing.T) {
	store := NewCartStore()
	created, err := store.Create(context.Background(), domain.NewCart("111111111"))
	require.NoError(t, err)

	created.Items = append(created.Items, testItem("SAVE-42-X7K", 2))
	saved, err := store.Save(context.Background(), created)
	require.NoError(t, err)

	assert.Equal(t, created.ID, saved.ID)
	assert.Len(t, saved.Items, 1)
	assert.Equal(t, created.CreatedAt, saved.CreatedAt)
	assert.False(t, saved.UpdatedAt.Before(saved.CreatedAt))
}

func TestSave_MissingCart(t *testing.T) {
	store := NewCartStore()
	cart := domain.NewCart("111111111")
	cart.ID = "missing"

	_, err := store.Save(context.Background(), cart)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	store := NewCartStore()
	created, err := store.Create(context.Background(), domain.NewCart("111111111"))
	require.NoError(t, err)

	deleted, err := store.DeleteByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListAll(t *testing.T) {
	store := NewCartStore()
	for _, userID := range []string{"111111111", "222222222", "333333333"} {
		_, err := store.Create(context.Background(), domain.NewCart(userID))
		require.NoError(t, err)
	}

	carts, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, carts, 3)
}

func TestListDistinctUserIDs(t *testing.T) {
	store := NewCartStore()
	for _, userID := range []string{"111111111", "222222222", "111111111"} {
		_, err := store.Create(context.Background(), domain.NewCart(userID))
		require.NoError(t, err)
	}

	ids, err := store.ListDistinctUserIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"111111111", "222222222"}, ids)
}
