package handler

import (
	"context"
	"time"

	"comics-store/internal/model"
	"comics-store/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of service.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCartService is a mock implementation of service.CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) ResolveCart(ctx context.Context, actor model.Actor, createIfMissing bool) (*model.Cart, error) {
	args := m.Called(ctx, actor, createIfMissing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, actor model.Actor, productID uuid.UUID, quantity int) (*model.Cart, error) {
	args := m.Called(ctx, actor, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, actor model.Actor, itemID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, actor, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) IncreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, actor, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) DecreaseItem(ctx context.Context, actor model.Actor, productID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, actor, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Checkout(ctx context.Context, actor model.Actor, req *service.CheckoutRequest) (*service.CheckoutResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutResult), args.Error(1)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) Refund(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) Ship(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) Complete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) HandleNotification(ctx context.Context, orderID uuid.UUID, notificationType string) error {
	args := m.Called(ctx, orderID, notificationType)
	return args.Error(0)
}

// MockTicketService is a mock implementation of service.TicketService.
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) CheckIn(ctx context.Context, code uuid.UUID) (*model.CheckInResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckInResult), args.Error(1)
}

func (m *MockTicketService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IssuedTicket), args.Error(1)
}

func (m *MockTicketService) DeliverForOrder(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockAnalyticsService is a mock implementation of service.AnalyticsService.
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Stats(ctx context.Context, since *time.Time) (*model.SalesStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesStats), args.Error(1)
}

func (m *MockAnalyticsService) StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.OrderStatus]int), args.Error(1)
}

func (m *MockAnalyticsService) Visitors(ctx context.Context) (*model.VisitorCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VisitorCounts), args.Error(1)
}
