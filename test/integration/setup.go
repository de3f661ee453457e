package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
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

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

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

// createSchema creates the database schema for testing. It mirrors
// migrations/0001_init.up.sql.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			ref        TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			price      NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
			image_ref  TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS orders (
			ref                  UUID PRIMARY KEY,
			subtotal             NUMERIC(12, 2) NOT NULL CHECK (subtotal >= 0),
			delivery_fee         NUMERIC(12, 2) NOT NULL CHECK (delivery_fee >= 0),
			points_redeemed      INTEGER NOT NULL DEFAULT 0 CHECK (points_redeemed >= 0),
			discount             NUMERIC(12, 2) NOT NULL CHECK (discount >= 0),
			total                NUMERIC(12, 2) NOT NULL CHECK (total >= 0),
			billing_first_name   TEXT NOT NULL,
			billing_last_name    TEXT NOT NULL,
			billing_street       TEXT NOT NULL,
			billing_city         TEXT NOT NULL,
			billing_postal_code  TEXT NOT NULL,
			billing_phone        TEXT NOT NULL,
			shipping_first_name  TEXT NOT NULL,
			shipping_last_name   TEXT NOT NULL,
			shipping_street      TEXT NOT NULL,
			shipping_city        TEXT NOT NULL,
			shipping_postal_code TEXT NOT NULL,
			shipping_phone       TEXT NOT NULL,
			payment_method       TEXT NOT NULL,
			contact_email        TEXT NOT NULL,
			status               TEXT NOT NULL DEFAULT 'submitted',
			created_at           TIMESTAMPTZ NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS order_lines (
			id          UUID PRIMARY KEY,
			order_ref   UUID NOT NULL REFERENCES orders (ref) ON DELETE CASCADE,
			product_ref TEXT NOT NULL,
			quantity    INTEGER NOT NULL CHECK (quantity > 0),
			unit_price  NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_order_lines_order_ref ON order_lines (order_ref);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProducts inserts test catalog data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		ref   string
		name  string
		price decimal.Decimal
	}{
		{"dog-chow", "Premium Dog Chow 5kg", decimal.NewFromInt(100)},
		{"cat-litter", "Clumping Cat Litter 10L", decimal.NewFromInt(250)},
		{"bird-seed", "Wild Bird Seed Mix 2kg", decimal.NewFromInt(50)},
		{"fish-flakes", "Tropical Fish Flakes 200g", decimal.NewFromInt(80)},
		{"chew-toy", "Rubber Chew Toy", decimal.NewFromInt(120)},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (ref, name, price) VALUES ($1, $2, $3)",
			p.ref, p.name, p.price,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.ref, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_lines", "orders", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
