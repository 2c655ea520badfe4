package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

// Sentinel errors for cart operations.
var (
	// ErrNotFound is returned when the user has no cart yet.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when a product has no line in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrInvalidQuantity is returned for quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// InsufficientStockError indicates a requested quantity that the current
// inventory cannot cover. The message always reports the available stock and
// the quantity already in the cart, even when the latter is zero.
type InsufficientStockError struct {
	ProductName string
	Available   int
	InCart      int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d already in cart, %d requested",
		e.ProductName, e.Available, e.InCart, e.Requested)
}

// Item is a single product line in a cart. Product carries the current
// catalog data for the referenced product; it is hydrated on every read.
type Item struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
}

// Subtotal is the line's current price: unit price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the per-user mutable collection of product lines. The cart row
// itself persists when emptied; only its items are deleted.
type Cart struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Items  []Item `json:"items"`
}

// Total is the current price of all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemFor returns the line for productID, or nil.
func (c *Cart) ItemFor(productID string) *Item {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Repository defines persistence operations for carts. The (cart, product)
// pair is unique at the storage level: AddItem increments an existing line
// instead of duplicating it.
type Repository interface {
	// GetByUserID returns the user's hydrated cart, or ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// Create inserts an empty cart for the user.
	Create(ctx context.Context, userID string) (*Cart, error)
	// AddItem inserts a line or increments the quantity of an existing one.
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	// SetItemQuantity replaces a line's quantity, or returns ErrItemNotFound.
	SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) error
	// RemoveItem deletes a line, or returns ErrItemNotFound.
	RemoveItem(ctx context.Context, cartID, productID string) error
	// Clear deletes every line of the cart.
	Clear(ctx context.Context, cartID string) error
}
