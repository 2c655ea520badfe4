package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrNameTaken is returned when a product name is already in use.
	ErrNameTaken = errors.New("product name already exists")
	// ErrInUse is returned when deleting a product that is referenced by an order.
	ErrInUse = errors.New("product is referenced by existing orders and cannot be deleted")
)

// Game identifies the trading-card game a product belongs to.
type Game string

const (
	GameMagic  Game = "mtg"
	GameYugioh Game = "yugioh"
)

// cardTypes lists the valid card types per game.
var cardTypes = map[Game][]string{
	GameMagic:  {"creature", "instant", "sorcery", "enchantment", "artifact", "planeswalker", "land"},
	GameYugioh: {"monster", "spell", "trap"},
}

// Valid reports whether g is a known game.
func (g Game) Valid() bool {
	_, ok := cardTypes[g]
	return ok
}

// CardTypes returns the card types valid for this game.
func (g Game) CardTypes() []string {
	return cardTypes[g]
}

// AllowsCardType reports whether cardType belongs to this game's fixed set.
// An empty card type is always allowed: the classification is optional.
func (g Game) AllowsCardType(cardType string) bool {
	if cardType == "" {
		return true
	}
	for _, t := range cardTypes[g] {
		if t == cardType {
			return true
		}
	}
	return false
}

// IncompatibleCardTypeError indicates a card type outside the fixed set for
// the product's game.
type IncompatibleCardTypeError struct {
	Game     Game
	CardType string
}

func (e *IncompatibleCardTypeError) Error() string {
	return "card type " + e.CardType + " is not valid for game " + string(e.Game)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Game     Game            `json:"game"`
	CardType string          `json:"cardType,omitempty"`
	Rarity   string          `json:"rarity,omitempty"`
	Image    string          `json:"image,omitempty"`
}

// Validate checks the cross-field invariants of a product: a known game,
// a non-negative price and stock, and a card type compatible with the game.
func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !p.Game.Valid() {
		return errors.Errorf("unknown game %q", p.Game)
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if p.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	if !p.Game.AllowsCardType(p.CardType) {
		return &IncompatibleCardTypeError{Game: p.Game, CardType: p.CardType}
	}
	return nil
}

// Filter narrows catalog listings.
type Filter struct {
	Game     Game
	CardType string
}

// Repository defines persistence operations for the product catalog.
// Stock is only ever decremented inside the order checkout transaction
// (see the order repository), never through this interface.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
