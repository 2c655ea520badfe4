package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mikaelbfaa/cardshop/internal/domain/cart"
	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
	"github.com/Mikaelbfaa/cardshop/internal/domain/user"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID          map[string]*Order
	createErr     error
	clearedCartID string
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order, cartID string) error {
	if m.createErr != nil {
		return m.createErr
	}
	stored := *o
	m.byID[o.ID] = &stored
	m.clearedCartID = cartID
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, f Filter) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockCartRepo struct {
	byUser map[string]*cart.Cart
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) Create(_ context.Context, _ string) (*cart.Cart, error) { return nil, nil }
func (m *mockCartRepo) AddItem(_ context.Context, _, _ string, _ int) error    { return nil }
func (m *mockCartRepo) SetItemQuantity(_ context.Context, _, _ string, _ int) error {
	return nil
}
func (m *mockCartRepo) RemoveItem(_ context.Context, _, _ string) error { return nil }
func (m *mockCartRepo) Clear(_ context.Context, _ string) error         { return nil }

type mockUserRepo struct {
	byID map[string]*user.User
}

func (m *mockUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, _ *user.User) error { return nil }
func (m *mockUserRepo) Delete(_ context.Context, _ string) error     { return nil }

// --- Helpers ---

func testProduct(id, name, price string, stock int) *product.Product {
	return &product.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
		Game:  product.GameYugioh,
	}
}

func cartWith(userID string, items ...cart.Item) *mockCartRepo {
	return &mockCartRepo{byUser: map[string]*cart.Cart{
		userID: {ID: "cart-" + userID, UserID: userID, Items: items},
	}}
}

func knownUser(id string) *mockUserRepo {
	return &mockUserRepo{byID: map[string]*user.User{
		id: {ID: id, Name: "Test User", Email: id + "@example.com", Role: user.RoleCustomer},
	}}
}

// --- Tests ---

func TestCreateOrder_BlankAddress(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	_, err := svc.CreateOrder(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, ErrBlankAddress)
}

func TestCreateOrder_UserNotFound(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), &mockUserRepo{})

	_, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreateOrder_NoCart(t *testing.T) {
	svc := NewService(newMockOrderRepo(), &mockCartRepo{byUser: map[string]*cart.Cart{}}, knownUser("u1"))

	_, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	_, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	p := testProduct("p1", "Blue-Eyes White Dragon", "59.90", 2)
	carts := cartWith("u1", cart.Item{ProductID: "p1", Quantity: 3, Product: p})
	svc := NewService(newMockOrderRepo(), carts, knownUser("u1"))

	_, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Blue-Eyes White Dragon", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
}

func TestCreateOrder_Success(t *testing.T) {
	p1 := testProduct("p1", "Dark Magician", "34.90", 10)
	p2 := testProduct("p2", "Pot of Greed", "12.00", 10)
	orders := newMockOrderRepo()
	carts := cartWith("u1",
		cart.Item{ProductID: "p1", Quantity: 2, Product: p1},
		cart.Item{ProductID: "p2", Quantity: 1, Product: p2},
	)
	svc := NewService(orders, carts, knownUser("u1"))

	o, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "u1", o.UserID)
	assert.True(t, decimal.RequireFromString("81.80").Equal(o.TotalPrice))
	require.Len(t, o.Items, 2)
	assert.True(t, p1.Price.Equal(o.Items[0].UnitPrice))
	assert.Equal(t, "cart-u1", orders.clearedCartID)
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	p := testProduct("p1", "Dark Magician", "34.90", 10)
	orders := newMockOrderRepo()
	carts := cartWith("u1", cart.Item{ProductID: "p1", Quantity: 1, Product: p})
	svc := NewService(orders, carts, knownUser("u1"))

	o, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.NoError(t, err)

	// A later catalog price change must not touch the stored order.
	p.Price = decimal.RequireFromString("99.99")
	stored, err := svc.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("34.90").Equal(stored.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("34.90").Equal(stored.TotalPrice))
}

func TestCreateOrder_RepoError(t *testing.T) {
	p := testProduct("p1", "Dark Magician", "34.90", 10)
	orders := newMockOrderRepo()
	orders.createErr = errors.New("tx aborted")
	carts := cartWith("u1", cart.Item{ProductID: "p1", Quantity: 1, Product: p})
	svc := NewService(orders, carts, knownUser("u1"))

	_, err := svc.CreateOrder(context.Background(), "u1", "742 Evergreen Terrace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Empty(t, orders.byID)
	assert.Empty(t, orders.clearedCartID)
}

func TestTransition_UnknownStatus(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	_, err := svc.Transition(context.Background(), "o1", Status("SHIPPING"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransition_OrderNotFound(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	_, err := svc.Transition(context.Background(), "missing", StatusProcessing)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_Invalid(t *testing.T) {
	orders := newMockOrderRepo()
	orders.byID["o1"] = &Order{ID: "o1", UserID: "u1", Status: StatusPending}
	svc := NewService(orders, cartWith("u1"), knownUser("u1"))

	_, err := svc.Transition(context.Background(), "o1", StatusDelivered)

	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusPending, trErr.From)
	assert.Equal(t, StatusDelivered, trErr.To)
}

func TestTransition_Success(t *testing.T) {
	orders := newMockOrderRepo()
	orders.byID["o1"] = &Order{ID: "o1", UserID: "u1", Status: StatusPending}
	svc := NewService(orders, cartWith("u1"), knownUser("u1"))

	o, err := svc.Transition(context.Background(), "o1", StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
}

func TestTransition_TerminalStates(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		orders := newMockOrderRepo()
		orders.byID["o1"] = &Order{ID: "o1", UserID: "u1", Status: terminal}
		svc := NewService(orders, cartWith("u1"), knownUser("u1"))

		for _, target := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
			if target == terminal {
				continue
			}
			_, err := svc.Transition(context.Background(), "o1", target)
			var trErr *InvalidTransitionError
			require.ErrorAs(t, err, &trErr, "%s -> %s should be rejected", terminal, target)
		}
	}
}

func TestListAll_InvalidStatusFilter(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	_, err := svc.ListAll(context.Background(), Filter{Status: Status("BOGUS")})
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewService(newMockOrderRepo(), cartWith("u1"), knownUser("u1"))

	err := svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
