package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/order"
	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, shipping_address, total_price, status)
		VALUES ($1, $2, $3, $4, $5)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	// The stock >= quantity predicate is the oversell guard: the row lock
	// taken here linearizes concurrent checkouts, and zero affected rows
	// means another transaction already took the remaining units.
	decrementStockSQL = `UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	stockSnapshotSQL = `SELECT name, stock FROM products WHERE id = $1`

	orderColumns = `id, user_id, shipping_address, total_price, status, created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT oi.product_id, oi.quantity, oi.unit_price,
			p.id, p.name, p.price, p.stock, p.game, COALESCE(p.card_type, ''), p.rarity, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a checkout atomically: the order row, its items, the stock
// decrement for every line, and the cart cleanup commit together or not at
// all. A line whose stock cannot cover the quantity aborts the transaction
// with an *order.InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, cartID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning checkout transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.ShippingAddress, o.TotalPrice, string(o.Status),
	); err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			o.ID, it.ProductID, it.Quantity, it.UnitPrice,
		); err != nil {
			return fmt.Errorf("inserting order item %q: %w", it.ProductID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, it.ProductID, it.Quantity)
		if err != nil {
			if violatesConstraint(err, pgCheckViolation, "") {
				return r.insufficientStock(ctx, tx, it)
			}
			return fmt.Errorf("decrementing stock for %q: %w", it.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.insufficientStock(ctx, tx, it)
		}
	}

	if _, err := tx.Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", cartID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkout transaction: %w", err)
	}
	return nil
}

// insufficientStock builds the domain error with the product's current name
// and stock. The surrounding transaction rolls back regardless.
func (r *OrderRepository) insufficientStock(ctx context.Context, tx pgx.Tx, it order.Item) error {
	stockErr := &order.InsufficientStockError{
		ProductName: it.ProductID,
		Requested:   it.Quantity,
	}
	// Best effort: the row may be gone if the product was deleted concurrently.
	_ = tx.QueryRow(ctx, stockSnapshotSQL, it.ProductID).
		Scan(&stockErr.ProductName, &stockErr.Available)
	return stockErr
}

// GetByID returns a single order with its items and nested product data.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return r.collectWithItems(ctx, rows)
}

// ListAll returns every order, optionally filtered by status, newest first.
func (r *OrderRepository) ListAll(ctx context.Context, f order.Filter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return r.collectWithItems(ctx, rows)
}

// UpdateStatus persists a new status for an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order and its items.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) collectWithItems(ctx context.Context, rows pgx.Rows) ([]order.Order, error) {
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("scanning items of order %q: %w", orderID, err)
	}
	return items, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		total  decimal.Decimal
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddress, &total, &status, &o.CreatedAt, &o.UpdatedAt)
	o.TotalPrice = total
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		it        order.Item
		unitPrice decimal.Decimal
		p         product.Product
		price     decimal.Decimal
		game      string
	)
	err := row.Scan(
		&it.ProductID, &it.Quantity, &unitPrice,
		&p.ID, &p.Name, &price, &p.Stock, &game, &p.CardType, &p.Rarity, &p.Image,
	)
	it.UnitPrice = unitPrice
	p.Price = price
	p.Game = product.Game(game)
	it.Product = &p
	return it, err
}
