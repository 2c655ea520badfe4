package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the subject user's cart, creating an empty one on first use.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	c, err := h.carts.GetOrCreate(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// AddCartItem adds units of a product to the subject user's cart. A missing
// quantity defaults to 1; an existing line is incremented, not duplicated.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "productId is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	c, err := h.carts.AddItem(r.Context(), userID, req.ProductID, quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// UpdateCartItem replaces the quantity of an existing cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), userID, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// RemoveCartItem deletes one line from the subject user's cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), userID, chi.URLParam(r, "productId"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// ClearCart empties the subject user's cart. The cart itself persists.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}
