package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"comics-store/internal/model"
	"comics-store/internal/payment"
	"comics-store/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCart() *model.Cart {
	orderID := uuid.New()
	productID := uuid.New()
	return &model.Cart{
		Order: &model.Order{ID: orderID, Status: model.StatusPending, Total: 150.0},
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ProductID: &productID, Quantity: 1, UnitPrice: 150.0},
		},
	}
}

func TestCartHandler_Get_EmptyCart(t *testing.T) {
	logger := zerolog.Nop()

	mockService := new(MockCartService)
	mockService.On("ResolveCart", mock.Anything, mock.AnythingOfType("model.Actor"), false).Return(nil, nil)

	h := NewCartHandler(mockService, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var cart model.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	assert.Nil(t, cart.Order)
	assert.Empty(t, cart.Items)
}

func TestCartHandler_AddItem(t *testing.T) {
	logger := zerolog.Nop()
	productID := uuid.New()
	cart := testCart()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("AddItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID, 2).Return(cart, nil)

		h := NewCartHandler(mockService, logger)

		body := `{"productId":"` + productID.String() + `","quantity":2}`
		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.AddItem(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Quantity defaults to one", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("AddItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID, 1).Return(cart, nil)

		h := NewCartHandler(mockService, logger)

		body := `{"productId":"` + productID.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.AddItem(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Invalid JSON body", func(t *testing.T) {
		h := NewCartHandler(new(MockCartService), logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		h.AddItem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Negative quantity rejected by service", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("AddItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID, -2).
			Return(nil, model.ErrInvalidQuantity)

		h := NewCartHandler(mockService, logger)

		body := `{"productId":"` + productID.String() + `","quantity":-2}`
		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.AddItem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, model.ErrCodeInvalidQuantity, resp.Code)
	})

	t.Run("Unknown product", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("AddItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID, 1).
			Return(nil, model.ErrProductNotFound)

		h := NewCartHandler(mockService, logger)

		body := `{"productId":"` + productID.String() + `","quantity":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.AddItem(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCartHandler_Checkout(t *testing.T) {
	logger := zerolog.Nop()

	body := `{"shippingAddress":{"firstName":"Wanjiru","lastName":"K","email":"wanjiru@example.com"},"phoneNumber":"+254700000000"}`

	t.Run("Success", func(t *testing.T) {
		orderID := uuid.New()
		result := &service.CheckoutResult{PaymentURL: "https://pay.example.com/r/1", OrderID: orderID}

		mockService := new(MockCartService)
		mockService.On("Checkout", mock.Anything, mock.AnythingOfType("model.Actor"), mock.MatchedBy(func(req *service.CheckoutRequest) bool {
			return req.ShippingAddress.Email == "wanjiru@example.com" && req.PhoneNumber != nil
		})).Return(result, nil)

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got service.CheckoutResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "https://pay.example.com/r/1", got.PaymentURL)
		assert.Equal(t, orderID, got.OrderID)
	})

	t.Run("Empty cart", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("Checkout", mock.Anything, mock.AnythingOfType("model.Actor"), mock.Anything).
			Return(nil, model.ErrEmptyCart)

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Gateway misconfigured stays generic", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("Checkout", mock.Anything, mock.AnythingOfType("model.Actor"), mock.Anything).
			Return(nil, &payment.ConfigurationError{Reason: "consumer key or secret missing"})

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "payment service unavailable", resp.Error)
		assert.NotContains(t, rec.Body.String(), "consumer")
	})

	t.Run("Gateway unreachable stays generic", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("Checkout", mock.Anything, mock.AnythingOfType("model.Actor"), mock.Anything).
			Return(nil, &payment.GatewayError{Op: "RequestToken", Status: http.StatusBadGateway})

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "RequestToken")
	})
}

func TestCartHandler_RemoveItem_NotFound(t *testing.T) {
	logger := zerolog.Nop()
	itemID := uuid.New()

	mockService := new(MockCartService)
	mockService.On("RemoveItem", mock.Anything, mock.AnythingOfType("model.Actor"), itemID).
		Return(nil, model.ErrItemNotFound)

	h := NewCartHandler(mockService, logger)

	body := `{"itemId":"` + itemID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/remove", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.RemoveItem(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_IncreaseDecrease(t *testing.T) {
	logger := zerolog.Nop()
	productID := uuid.New()
	cart := testCart()
	body := `{"productId":"` + productID.String() + `"}`

	t.Run("Increase", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("IncreaseItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID).Return(cart, nil)

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/increase", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.IncreaseItem(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Decrease", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("DecreaseItem", mock.Anything, mock.AnythingOfType("model.Actor"), productID).Return(cart, nil)

		h := NewCartHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/decrease", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.DecreaseItem(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		h := NewCartHandler(new(MockCartService), logger)

		req := httptest.NewRequest(http.MethodGet, "/api/cart/increase", nil)
		rec := httptest.NewRecorder()

		h.IncreaseItem(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
