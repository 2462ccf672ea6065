package service

import (
	"context"
	"time"

	"comics-store/internal/mailer"
	"comics-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (bool, error) {
	args := m.Called(ctx, tx, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPendingByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPendingBySession(ctx context.Context, tx pgx.Tx, sessionKey string) (*model.Order, error) {
	args := m.Called(ctx, tx, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) GetItem(ctx context.Context, tx pgx.Tx, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	args := m.Called(ctx, tx, orderID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) FindItemByProduct(ctx context.Context, tx pgx.Tx, orderID, productID uuid.UUID) (*model.OrderItem, error) {
	args := m.Called(ctx, tx, orderID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) InsertItem(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, tx, itemID, quantity)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error {
	args := m.Called(ctx, tx, itemID)
	return args.Error(0)
}

func (m *MockOrderRepository) ReparentItem(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, itemID, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, total float64) error {
	args := m.Called(ctx, tx, orderID, total)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error {
	args := m.Called(ctx, tx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateActor(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, userID *uuid.UUID, sessionKey string) error {
	args := m.Called(ctx, tx, orderID, userID, sessionKey)
	return args.Error(0)
}

func (m *MockOrderRepository) SetCheckoutDetails(ctx context.Context, orderID uuid.UUID, addr *model.ShippingAddress, phone *string, userID *uuid.UUID) error {
	args := m.Called(ctx, orderID, addr, phone, userID)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of TicketRepository.
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tx pgx.Tx, tickets []model.EventTicket) error {
	args := m.Called(ctx, tx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByCode(ctx context.Context, code uuid.UUID) (*model.IssuedTicket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IssuedTicket), args.Error(1)
}

func (m *MockTicketRepository) MarkUsed(ctx context.Context, code uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, code, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IssuedTicket), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockVisitorRepository is a mock implementation of VisitorRepository.
type MockVisitorRepository struct {
	mock.Mock
}

func (m *MockVisitorRepository) Insert(ctx context.Context, visitedAt time.Time) error {
	args := m.Called(ctx, visitedAt)
	return args.Error(0)
}

func (m *MockVisitorRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository.
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) SalesStats(ctx context.Context, since *time.Time) (*model.SalesStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesStats), args.Error(1)
}

func (m *MockAnalyticsRepository) StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.OrderStatus]int), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiatePayment(ctx context.Context, order *model.Order, email, phone string) (string, error) {
	args := m.Called(ctx, order, email, phone)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) RegisterIPN(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// MockDispatcher is a mock implementation of mailer.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchTickets(ctx context.Context, msg *mailer.TicketMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockDispatcher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDeliverer is a mock implementation of TicketDeliverer.
type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) DeliverForOrder(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
