package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

// Service implements the cart store: the per-user mutable line-item
// collection backing checkout. Every mutating operation returns the
// refreshed cart so callers never rely on a stale local view.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
// It is idempotent: repeated calls without mutation return the same cart.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "get cart")
	}

	c, err = s.carts.Create(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// AddItem adds quantity units of a product to the user's cart. If the
// product already has a line, its quantity is incremented; a duplicate line
// is never created. The combined quantity must not exceed current stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	c, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	inCart := 0
	if line := c.ItemFor(productID); line != nil {
		inCart = line.Quantity
	}
	if inCart+quantity > p.Stock {
		return nil, &InsufficientStockError{
			ProductName: p.Name,
			Available:   p.Stock,
			InCart:      inCart,
			Requested:   quantity,
		}
	}

	if err := s.carts.AddItem(ctx, c.ID, productID, quantity); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return s.carts.GetByUserID(ctx, userID)
}

// UpdateQuantity replaces (not adds to) the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.ItemFor(productID) == nil {
		return nil, ErrItemNotFound
	}

	if quantity > p.Stock {
		return nil, &InsufficientStockError{
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   quantity,
		}
	}

	if err := s.carts.SetItemQuantity(ctx, c.ID, productID, quantity); err != nil {
		return nil, errors.Wrap(err, "set cart item quantity")
	}
	return s.carts.GetByUserID(ctx, userID)
}

// RemoveItem deletes a line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.ItemFor(productID) == nil {
		return nil, ErrItemNotFound
	}

	if err := s.carts.RemoveItem(ctx, c.ID, productID); err != nil {
		return nil, errors.Wrap(err, "remove cart item")
	}
	return s.carts.GetByUserID(ctx, userID)
}

// Clear deletes every line of the user's cart. The cart row persists for
// reuse. Clearing an already-empty cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	if len(c.Items) > 0 {
		if err := s.carts.Clear(ctx, c.ID); err != nil {
			return nil, errors.Wrap(err, "clear cart")
		}
	}
	return s.carts.GetByUserID(ctx, userID)
}
