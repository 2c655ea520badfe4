package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/cart"
	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

const (
	getCartByUserSQL = `SELECT id, user_id FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (id, user_id) VALUES ($1, $2)`

	// The primary key on (cart_id, product_id) makes this an increment for an
	// existing line and an insert otherwise; a duplicate line cannot exist.
	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartItemQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2`

	removeCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	listCartItemsSQL = `SELECT ci.product_id, ci.quantity,
			p.id, p.name, p.price, p.stock, p.game, COALESCE(p.card_type, ''), p.rarity, p.image
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUserID returns the user's cart with its lines and current product
// data, or cart.ErrNotFound when the user has no cart yet.
func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartByUserSQL, userID).Scan(&c.ID, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("scanning cart items: %w", err)
	}
	return &c, nil
}

// Create inserts an empty cart for the user.
func (r *CartRepository) Create(ctx context.Context, userID string) (*cart.Cart, error) {
	c := &cart.Cart{ID: uuid.New().String(), UserID: userID, Items: []cart.Item{}}
	if _, err := r.pool.Exec(ctx, insertCartSQL, c.ID, c.UserID); err != nil {
		return nil, fmt.Errorf("creating cart for user %q: %w", userID, err)
	}
	return c, nil
}

// AddItem inserts a line or increments an existing one.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if _, err := r.pool.Exec(ctx, upsertCartItemSQL, cartID, productID, quantity); err != nil {
		return fmt.Errorf("adding item %q to cart %q: %w", productID, cartID, err)
	}
	return nil
}

// SetItemQuantity replaces a line's quantity.
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, setCartItemQuantitySQL, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("setting quantity for item %q in cart %q: %w", productID, cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes a line.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, cartID, productID)
	if err != nil {
		return fmt.Errorf("removing item %q from cart %q: %w", productID, cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Clear deletes every line of the cart. The cart row persists for reuse.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", cartID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it    cart.Item
		p     product.Product
		price decimal.Decimal
		game  string
	)
	err := row.Scan(
		&it.ProductID, &it.Quantity,
		&p.ID, &p.Name, &price, &p.Stock, &game, &p.CardType, &p.Rarity, &p.Image,
	)
	p.Price = price
	p.Game = product.Game(game)
	it.Product = &p
	return it, err
}
