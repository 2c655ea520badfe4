package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/cart"
	"github.com/Mikaelbfaa/cardshop/internal/domain/user"
)

// Service is the order lifecycle engine: it converts carts into immutable
// orders and drives the order status state machine.
type Service struct {
	orders Repository
	carts  cart.Repository
	users  user.Repository
}

// NewService creates an order Service.
func NewService(orders Repository, carts cart.Repository, users user.Repository) *Service {
	return &Service{orders: orders, carts: carts, users: users}
}

// CreateOrder converts the user's cart into a PENDING order.
//
// The stock pre-check below gives a friendly error for the common case; the
// correctness guarantee against concurrent checkouts is the repository
// transaction, which re-checks stock at decrement time and rolls everything
// back when any line cannot be covered.
func (s *Service) CreateOrder(ctx context.Context, userID, shippingAddress string) (*Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, ErrBlankAddress
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, errors.Wrap(err, "get cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrCartEmpty
	}

	items := make([]Item, len(c.Items))
	total := decimal.Zero
	for i, line := range c.Items {
		if line.Product == nil {
			return nil, errors.Errorf("cart line %s has no product data", line.ProductID)
		}
		if line.Quantity > line.Product.Stock {
			return nil, &InsufficientStockError{
				ProductName: line.Product.Name,
				Available:   line.Product.Stock,
				Requested:   line.Quantity,
			}
		}

		// Snapshot the unit price now; the stored order never follows later
		// catalog price changes.
		items[i] = Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		}
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		ShippingAddress: shippingAddress,
		TotalPrice:      total.Round(2),
		Status:          StatusPending,
		Items:           items,
	}
	if err := s.orders.Create(ctx, o, c.ID); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return s.orders.GetByID(ctx, o.ID)
}

// Transition moves an order to target along the state machine. Any move not
// listed for the current status is rejected, including a move to the current
// status itself.
func (s *Service) Transition(ctx context.Context, orderID string, target Status) (*Order, error) {
	if !target.Valid() {
		return nil, ErrUnknownStatus
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	if !o.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	return s.orders.GetByID(ctx, orderID)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetByID loads a single order with its items.
func (s *Service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListAll returns every order, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	return s.orders.ListAll(ctx, f)
}

// Delete removes an order entirely. Admin cleanup only.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return errors.Wrap(err, "get order")
	}
	return s.orders.Delete(ctx, orderID)
}
