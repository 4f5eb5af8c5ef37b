package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cartrecords/internal/dispatch"
	"github.com/utafrali/cartrecords/internal/domain"
	"github.com/utafrali/cartrecords/internal/repository/memory"
	"github.com/utafrali/cartrecords/internal/service"
	"github.com/utafrali/cartrecords/pkg/health"
)

type noopPublisher struct{}

func (noopPublisher) PublishCartUpdated(context.Context, *domain.Cart) error { return nil }
func (noopPublisher) PublishCartDeleted(context.Context, string) error       { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *memory.CartStore) {
	t.Helper()

	store := memory.NewCartStore()
	pool := dispatch.NewWorkerPool(4, 16)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewCartService(store, pool, noopPublisher{}, logger, service.Config{CreateIfMissing: true})

	srv := httptest.NewServer(NewRouter(svc, health.NewHandler(), logger))
	t.Cleanup(srv.Close)

	return srv, store
}

func doRequest(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeCart(t *testing.T, resp *http.Response) domain.Cart {
	t.Helper()

	var cart domain.Cart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	return cart
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	return *body.Error
}

func seedViaAPI(t *testing.T, srv *httptest.Server, userID string, items ...map[string]any) domain.Cart {
	t.Helper()

	payload := map[string]any{"userId": userID, "items": items}
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeCart(t, resp)
}

// seedEmptyCart inserts a cart with no items directly through the store; the
// create endpoint backfills empty carts with generated items.
func seedEmptyCart(t *testing.T, store *memory.CartStore, userID string) *domain.Cart {
	t.Helper()

	created, err := store.Create(context.Background(), domain.NewCart(userID))
	require.NoError(t, err)
	return created
}

func itemBody(productID string, quantity int) map[string]any {
	return map[string]any{
		"productId":   productID,
		"productName": "Rustic Steel Chair",
		"quantity":    quantity,
		"price":       49.99,
	}
}

func TestCreateCart(t *testing.T) {
	srv, _ := newTestServer(t)

	cart := seedViaAPI(t, srv, "111111111", itemBody("A-1", 2))

	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "111111111", cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "A-1", cart.Items[0].ProductID)
}

func TestCreateCart_EmptyBodyGeneratesCart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts", nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cart := decodeCart(t, resp)
	assert.Regexp(t, `^\d{9}$`, cart.UserID)
	assert.NotEmpty(t, cart.Items)
}

func TestCreateCart_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/carts", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Code)
}

func TestGetCart(t *testing.T) {
	srv, _ := newTestServer(t)
	created := seedViaAPI(t, srv, "111111111", itemBody("A-1", 1))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/"+created.ID, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodeCart(t, resp).ID)
}

func TestGetCart_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/missing", nil)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

func TestUpdateCart(t *testing.T) {
	srv, _ := newTestServer(t)
	created := seedViaAPI(t, srv, "111111111", itemBody("A-1", 1))

	payload := map[string]any{"userId": "222222222", "items": []map[string]any{itemBody("B-2", 4)}}
	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/carts/"+created.ID, payload)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeCart(t, resp)
	assert.Equal(t, "222222222", updated.UserID)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "B-2", updated.Items[0].ProductID)
}

func TestDeleteCart(t *testing.T) {
	srv, store := newTestServer(t)
	created := seedEmptyCart(t, store, "111111111")

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/v1/carts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Idempotent: deleting again also returns 204.
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/v1/carts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetCartByUserID(t *testing.T) {
	srv, _ := newTestServer(t)
	seedViaAPI(t, srv, "111111111", itemBody("A-1", 1))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/user/111111111", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "111111111", decodeCart(t, resp).UserID)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/user/222222222", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListCartsAndUserIDs(t *testing.T) {
	srv, store := newTestServer(t)
	seedEmptyCart(t, store, "111111111")
	seedEmptyCart(t, store, "222222222")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var carts []domain.Cart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&carts))
	assert.Len(t, carts, 2)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/carts/getAllUsersIds", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ids []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ids))
	assert.ElementsMatch(t, []string{"111111111", "222222222"}, ids)
}

func TestGenerateFakeCarts(t *testing.T) {
	srv, store := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/fake/10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	carts, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, carts, 10)
}

func TestGenerateFakeCarts_BadCount(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/fake/many", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/fake/0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddItem_BothModes(t *testing.T) {
	for _, mode := range []string{"sync", "async"} {
		t.Run(mode, func(t *testing.T) {
			srv, store := newTestServer(t)
			seedEmptyCart(t, store, "111111111")

			url := fmt.Sprintf("%s/api/v1/carts/add-item/%s/111111111", srv.URL, mode)
			resp := doRequest(t, http.MethodPost, url, itemBody("A-1", 2))

			require.Equal(t, http.StatusOK, resp.StatusCode)
			cart := decodeCart(t, resp)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, "A-1", cart.Items[0].ProductID)
			assert.Equal(t, 2, cart.Items[0].Quantity)
		})
	}
}

func TestAddItem_EmptyBodyUsesPlaceholder(t *testing.T) {
	srv, store := newTestServer(t)
	seedEmptyCart(t, store, "111111111")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/add-item/sync/111111111", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeCart(t, resp)
	require.Len(t, cart.Items, 1)
	assert.NotEmpty(t, cart.Items[0].ProductID)
	assert.NotEmpty(t, cart.Items[0].ProductName)
}

func TestAddItem_ValidationError(t *testing.T) {
	srv, store := newTestServer(t)
	seedEmptyCart(t, store, "111111111")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/add-item/sync/111111111",
		map[string]any{"productName": "Chair", "quantity": 1})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decodeError(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "productId")
}

func TestAddItem_UnknownMode(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/add-item/batch/111111111",
		itemBody("A-1", 1))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRemoveItem_BothModes(t *testing.T) {
	for _, mode := range []string{"sync", "async"} {
		t.Run(mode, func(t *testing.T) {
			srv, _ := newTestServer(t)
			seedViaAPI(t, srv, "111111111", itemBody("A-1", 1), itemBody("B-2", 2))

			url := fmt.Sprintf("%s/api/v1/carts/remove-item/%s/111111111", srv.URL, mode)
			resp := doRequest(t, http.MethodPost, url, map[string]any{"productId": "A-1"})

			require.Equal(t, http.StatusOK, resp.StatusCode)
			cart := decodeCart(t, resp)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, "B-2", cart.Items[0].ProductID)
		})
	}
}

func TestRemoveItem_AbsentProduct(t *testing.T) {
	srv, _ := newTestServer(t)
	seedViaAPI(t, srv, "111111111", itemBody("A-1", 1))

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/remove-item/sync/111111111",
		map[string]any{"productId": "B-2"})

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

func TestRemoveItem_MissingProductID(t *testing.T) {
	srv, _ := newTestServer(t)
	seedViaAPI(t, srv, "111111111", itemBody("A-1", 1))

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/remove-item/sync/111111111",
		map[string]any{})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Code)
}

func TestAddOrIncreaseItem_BothModes(t *testing.T) {
	for _, mode := range []string{"sync", "async"} {
		t.Run(mode, func(t *testing.T) {
			srv, _ := newTestServer(t)
			seedViaAPI(t, srv, "111111111", itemBody("A-1", 2))

			url := fmt.Sprintf("%s/api/v1/carts/add-or-increase/%s/111111111", srv.URL, mode)
			resp := doRequest(t, http.MethodPost, url, itemBody("A-1", 3))

			require.Equal(t, http.StatusOK, resp.StatusCode)
			cart := decodeCart(t, resp)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, 5, cart.Items[0].Quantity)
		})
	}
}

func TestAddOrIncreaseItem_CreatesMissingCart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/carts/add-or-increase/sync/999999999",
		itemBody("A-1", 1))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeCart(t, resp)
	assert.Equal(t, "999999999", cart.UserID)
	require.Len(t, cart.Items, 1)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
