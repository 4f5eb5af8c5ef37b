package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/cartrecords/internal/domain"
	"github.com/utafrali/cartrecords/internal/service"
	apperrors "github.com/utafrali/cartrecords/pkg/errors"
	"github.com/utafrali/cartrecords/pkg/validator"
)

// CartHandler handles HTTP requests for the cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CartItemRequest is the JSON request body for the item mutation endpoints.
type CartItemRequest struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (r CartItemRequest) toDomain() *domain.CartItem {
	return &domain.CartItem{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		Price:       r.Price,
	}
}

// RemoveItemRequest is the JSON request body for the remove-item endpoints.
type RemoveItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorBody struct {
	Error *errorResponse `json:"error"`
}

// --- CRUD handlers ---

// CreateCart handles POST /api/v1/carts
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil && !errors.Is(err, io.EOF) {
		h.writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	stored, err := h.service.CreateCart(r.Context(), &cart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// GetCart handles GET /api/v1/carts/{id}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// UpdateCart handles PUT /api/v1/carts/{id}
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		h.writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	stored, err := h.service.UpdateCart(r.Context(), chi.URLParam(r, "id"), &cart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

// DeleteCart handles DELETE /api/v1/carts/{id}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCartByUserID handles GET /api/v1/carts/user/{userId}
func (h *CartHandler) GetCartByUserID(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCartByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// ListCarts handles GET /api/v1/carts
func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

// ListUserIDs handles GET /api/v1/carts/getAllUsersIds
func (h *CartHandler) ListUserIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListDistinctUserIDs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// GenerateFakeCarts handles POST /api/v1/carts/fake/{count}
func (h *CartHandler) GenerateFakeCarts(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil {
		h.writeBadRequest(w, "count must be an integer")
		return
	}

	if err := h.service.GenerateFakeCarts(r.Context(), count); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"generated": count})
}

// --- Item mutation handlers ---

// AddItem handles POST /api/v1/carts/add-item/{mode}/{userId}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	var (
		cart *domain.Cart
		err  error
	)
	switch chi.URLParam(r, "mode") {
	case "sync":
		cart, err = h.service.AddItem(r.Context(), chi.URLParam(r, "userId"), item)
	case "async":
		cart, err = h.service.AddItemAsync(r.Context(), chi.URLParam(r, "userId"), item)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles POST /api/v1/carts/remove-item/{mode}/{userId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req RemoveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	var (
		cart *domain.Cart
		err  error
	)
	switch chi.URLParam(r, "mode") {
	case "sync":
		cart, err = h.service.RemoveItem(r.Context(), chi.URLParam(r, "userId"), req.ProductID)
	case "async":
		cart, err = h.service.RemoveItemAsync(r.Context(), chi.URLParam(r, "userId"), req.ProductID)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddOrIncreaseItem handles POST /api/v1/carts/add-or-increase/{mode}/{userId}
func (h *CartHandler) AddOrIncreaseItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	var (
		cart *domain.Cart
		err  error
	)
	switch chi.URLParam(r, "mode") {
	case "sync":
		cart, err = h.service.AddOrIncreaseItem(r.Context(), chi.URLParam(r, "userId"), item)
	case "async":
		cart, err = h.service.AddOrIncreaseItemAsync(r.Context(), chi.URLParam(r, "userId"), item)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// decodeItem reads an item request body. An empty body yields a generated
// placeholder item, a test-data convenience. The bool result reports whether
// handling should continue.
func (h *CartHandler) decodeItem(w http.ResponseWriter, r *http.Request) (*domain.CartItem, bool) {
	var req CartItemRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		placeholder := h.service.PlaceholderItem()
		return &placeholder, true
	}
	if err != nil {
		h.writeBadRequest(w, "invalid request body: "+err.Error())
		return nil, false
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return nil, false
	}

	return req.toDomain(), true
}

// --- Helpers ---

func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, errorBody{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	if errors.Is(err, apperrors.ErrNotFound) {
		code = "NOT_FOUND"
		message = "resource not found"
		status = http.StatusNotFound
	} else if errors.Is(err, apperrors.ErrInvalidInput) {
		code = "INVALID_INPUT"
		message = err.Error()
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, errorBody{
		Error: &errorResponse{Code: code, Message: message},
	})
}

func (h *CartHandler) writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, errorBody{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

func (h *CartHandler) writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}
