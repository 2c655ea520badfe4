package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrCartEmpty is returned on checkout with no cart or no cart lines.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrBlankAddress is returned when the shipping address is empty after
	// trimming whitespace.
	ErrBlankAddress = errors.New("shipping address is required")
	// ErrUnknownStatus is returned for a status value outside the state machine.
	ErrUnknownStatus = errors.New("unknown order status")
)

// InsufficientStockError indicates that a cart line requests more units than
// the product has in stock. It is produced both by the fast-fail pre-check
// and by the checkout transaction when a concurrent decrement wins the race.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested",
		e.ProductName, e.Available, e.Requested)
}

// Item is an immutable order line. UnitPrice is captured at order-creation
// time so later catalog price edits never change historical order value.
type Item struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Product   *product.Product `json:"product,omitempty"`
}

// Order is an immutable record of a checkout. Only Status changes after
// creation, and only along the state machine in status.go.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	ShippingAddress string          `json:"shippingAddress"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Filter narrows admin order listings.
type Filter struct {
	Status Status
}

// Repository defines persistence operations for orders.
//
// Create is the atomicity boundary of checkout: inserting the order row and
// its items, decrementing stock for every line, and clearing the cart all
// happen in one transaction. When stock cannot cover a line, Create returns
// an *InsufficientStockError and nothing is persisted.
type Repository interface {
	Create(ctx context.Context, o *Order, cartID string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}
