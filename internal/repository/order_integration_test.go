package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Mikaelbfaa/cardshop/internal/domain/order"
)

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%d/testdb?sslmode=disable", host, port.Int())

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)

	err = RunMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return pool, cleanup
}

func seedUser(t *testing.T, pool *pgxpool.Pool, id string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, cpf, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		id, "Test User "+id, id+"@example.com", id+"-cpf", "x")
	require.NoError(t, err)
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, id, name, price string, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, price, stock, game) VALUES ($1, $2, $3, $4, 'mtg')`,
		id, name, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
}

func seedCart(t *testing.T, pool *pgxpool.Pool, cartID, userID string, lines map[string]int) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO carts (id, user_id) VALUES ($1, $2)`, cartID, userID)
	require.NoError(t, err)
	for productID, qty := range lines {
		_, err := pool.Exec(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`,
			cartID, productID, qty)
		require.NoError(t, err)
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func productStock(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()
	var stock int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT stock FROM products WHERE id = $1`, id).Scan(&stock))
	return stock
}

func TestOrderCreate_Success(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, pool, "user-1")
	seedProduct(t, pool, "p-bolt", "Lightning Bolt", "4.50", 10)
	seedCart(t, pool, "cart-1", "user-1", map[string]int{"p-bolt": 3})

	o := &order.Order{
		ID:              uuid.NewString(),
		UserID:          "user-1",
		ShippingAddress: "221B Baker Street",
		TotalPrice:      decimal.RequireFromString("13.50"),
		Status:          order.StatusPending,
		Items: []order.Item{
			{ProductID: "p-bolt", Quantity: 3, UnitPrice: decimal.RequireFromString("4.50")},
		},
	}

	repo := NewOrderRepository(pool)
	require.NoError(t, repo.Create(ctx, o, "cart-1"))

	fetched, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.UserID, fetched.UserID)
	assert.Equal(t, order.StatusPending, fetched.Status)
	assert.True(t, fetched.TotalPrice.Equal(o.TotalPrice))
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "p-bolt", fetched.Items[0].ProductID)

	assert.Equal(t, 7, productStock(t, pool, "p-bolt"))
	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM cart_items WHERE cart_id = $1`, "cart-1"))
}

func TestOrderCreate_RollbackOnInsufficientStock(t *testing.T) {
	// One line fits, the next exceeds stock. The whole transaction must roll
	// back: no order, no items, no stock change, and the cart keeps its lines.
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, pool, "user-1")
	seedProduct(t, pool, "p-bolt", "Lightning Bolt", "4.50", 10)
	seedProduct(t, pool, "p-bew", "Blue-Eyes White Dragon", "59.90", 2)
	seedCart(t, pool, "cart-1", "user-1", map[string]int{"p-bolt": 3, "p-bew": 5})

	o := &order.Order{
		ID:              uuid.NewString(),
		UserID:          "user-1",
		ShippingAddress: "221B Baker Street",
		TotalPrice:      decimal.RequireFromString("313.00"),
		Status:          order.StatusPending,
		Items: []order.Item{
			{ProductID: "p-bolt", Quantity: 3, UnitPrice: decimal.RequireFromString("4.50")},
			{ProductID: "p-bew", Quantity: 5, UnitPrice: decimal.RequireFromString("59.90")},
		},
	}

	repo := NewOrderRepository(pool)
	err := repo.Create(ctx, o, "cart-1")

	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Blue-Eyes White Dragon", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM orders`))
	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM order_items`))
	assert.Equal(t, 10, productStock(t, pool, "p-bolt"))
	assert.Equal(t, 2, productStock(t, pool, "p-bew"))
	assert.Equal(t, 2, countRows(t, pool, `SELECT count(*) FROM cart_items WHERE cart_id = $1`, "cart-1"))
}

func TestOrderCreate_ConcurrentLastUnit(t *testing.T) {
	// Two checkouts race for the last unit. The row lock on the stock
	// decrement serializes them: exactly one commits, the loser rolls back
	// with an insufficient stock error, and stock never goes negative.
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedUser(t, pool, "user-1")
	seedUser(t, pool, "user-2")
	seedProduct(t, pool, "p-lotus", "Black Lotus", "9999.00", 1)
	seedCart(t, pool, "cart-1", "user-1", map[string]int{"p-lotus": 1})
	seedCart(t, pool, "cart-2", "user-2", map[string]int{"p-lotus": 1})

	repo := NewOrderRepository(pool)

	newOrder := func(userID string) *order.Order {
		return &order.Order{
			ID:              uuid.NewString(),
			UserID:          userID,
			ShippingAddress: "221B Baker Street",
			TotalPrice:      decimal.RequireFromString("9999.00"),
			Status:          order.StatusPending,
			Items: []order.Item{
				{ProductID: "p-lotus", Quantity: 1, UnitPrice: decimal.RequireFromString("9999.00")},
			},
		}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, c := range []struct{ userID, cartID string }{
		{"user-1", "cart-1"},
		{"user-2", "cart-2"},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), newOrder(c.userID), c.cartID)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var stockErr *order.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 1, stockErr.Requested)
		lost++
	}
	assert.Equal(t, 1, won, "exactly one checkout should commit")
	assert.Equal(t, 1, lost, "the other checkout should fail on stock")

	assert.Equal(t, 0, productStock(t, pool, "p-lotus"))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM orders`))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM order_items`))
}
