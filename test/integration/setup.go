package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price DECIMAL(10, 2) NOT NULL,
			discounted_price DECIMAL(10, 2),
			cost DECIMAL(10, 2),
			stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			sales_count INTEGER NOT NULL DEFAULT 0,
			trending BOOLEAN NOT NULL DEFAULT FALSE,
			event_start TIMESTAMPTZ,
			event_end TIMESTAMPTZ,
			event_location TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			session_key VARCHAR(255),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			total DECIMAL(10, 2) NOT NULL DEFAULT 0,
			shipping_address JSONB,
			phone_number VARCHAR(50),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_pending_user
			ON orders(user_id) WHERE status = 'pending' AND user_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_pending_session
			ON orders(session_key) WHERE status = 'pending' AND session_key IS NOT NULL;

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID REFERENCES products(id) ON DELETE SET NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			unit_price DECIMAL(10, 2) NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

		CREATE TABLE IF NOT EXISTS event_tickets (
			id UUID PRIMARY KEY,
			order_item_id UUID NOT NULL REFERENCES order_items(id) ON DELETE CASCADE,
			code UUID NOT NULL UNIQUE,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS visitors (
			id UUID PRIMARY KEY,
			visited_at TIMESTAMPTZ NOT NULL
		);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// Seed product IDs, fixed so tests can reference them directly.
var (
	ComicKweziID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	ComicShujaaID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ComicAkokoID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	EventDayPassID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

// SeedProducts inserts test catalogue data, three comics and one event.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	comics := []struct {
		id    uuid.UUID
		title string
		slug  string
		price float64
		stock int
	}{
		{ComicKweziID, "Kwezi #1", "kwezi-1", 450.00, 25},
		{ComicShujaaID, "Shujaa Stories #3", "shujaa-stories-3", 300.00, 10},
		{ComicAkokoID, "Akokoro", "akokoro", 600.00, 1},
	}

	for _, c := range comics {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, title, slug, price, stock)
			VALUES ($1, $2, $3, $4, $5)`,
			c.id, c.title, c.slug, c.price, c.stock,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", c.slug, err)
		}
	}

	eventStart := time.Date(2026, time.November, 14, 9, 0, 0, 0, time.UTC)
	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, title, slug, price, stock, event_start, event_location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		EventDayPassID, "Comic Con Day Pass", "comic-con-day-pass",
		1500.00, 100, eventStart, "Sarit Centre, Nairobi",
	)
	if err != nil {
		t.Fatalf("failed to seed event product: %v", err)
	}
}

// SeedUser inserts one account and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO users (id, email) VALUES ($1, $2)", id, email)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"event_tickets", "order_items", "orders", "visitors", "users", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
