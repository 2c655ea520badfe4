package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
)

type createProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Game     string          `json:"game"`
	CardType string          `json:"cardType"`
	Rarity   string          `json:"rarity"`
	Image    string          `json:"image"`
}

type updateProductRequest struct {
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Stock    *int             `json:"stock"`
	Game     *string          `json:"game"`
	CardType *string          `json:"cardType"`
	Rarity   *string          `json:"rarity"`
	Image    *string          `json:"image"`
}

// ListProducts returns the catalog, optionally filtered by game and card type.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f := product.Filter{
		Game:     product.Game(r.URL.Query().Get("game")),
		CardType: r.URL.Query().Get("cardType"),
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondList(w, len(products), products)
}

// GetProduct returns a single catalog product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

// CreateProduct adds a product to the catalog. Admin only.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := &product.Product{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Game:     product.Game(req.Game),
		CardType: req.CardType,
		Rarity:   req.Rarity,
		Image:    req.Image,
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

// UpdateProduct applies a partial update to a catalog product. Admin only.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Game != nil {
		p.Game = product.Game(*req.Game)
	}
	if req.CardType != nil {
		p.CardType = *req.CardType
	}
	if req.Rarity != nil {
		p.Rarity = *req.Rarity
	}
	if req.Image != nil {
		p.Image = *req.Image
	}

	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

// DeleteProduct removes a product from the catalog. Admin only. Products
// referenced by existing orders cannot be deleted.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "product deleted")
}
