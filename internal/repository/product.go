package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

const (
	productColumns = `id, name, price, stock, game, COALESCE(card_type, ''), rarity, image`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR game = $1) AND ($2 = '' OR card_type = $2)
		ORDER BY name`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, price, stock, game, card_type, rarity, image)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`

	updateProductSQL = `UPDATE products
		SET name = $2, price = $3, stock = $4, game = $5, card_type = NULLIF($6, ''),
		    rarity = $7, image = $8, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products, optionally filtered by game and card type.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, string(f.Game), f.CardType)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Price, p.Stock, string(p.Game), p.CardType, p.Rarity, p.Image,
	)
	if err != nil {
		if violatesConstraint(err, pgUniqueViolation, "products_name_key") {
			return product.ErrNameTaken
		}
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// Update overwrites all mutable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Price, p.Stock, string(p.Game), p.CardType, p.Rarity, p.Image,
	)
	if err != nil {
		if violatesConstraint(err, pgUniqueViolation, "products_name_key") {
			return product.ErrNameTaken
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product. A product referenced by an order cannot be
// deleted; the foreign key RESTRICT maps to product.ErrInUse.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if violatesConstraint(err, pgForeignKeyViolation, "") {
			return product.ErrInUse
		}
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
		game  string
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &game, &p.CardType, &p.Rarity, &p.Image)
	p.Price = price
	p.Game = product.Game(game)
	return p, err
}
