package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mikaelbfaa/cardshop/internal/domain/order"
)

type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// ListOrders returns the subject user's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondList(w, len(orders), orders)
}

// CreateOrder checks out the subject user's cart into a PENDING order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveSubjectUser(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, o)
}

// GetOrder returns a single order. Customers see only their own orders;
// admins see any.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if o.UserID != id.UserID && !id.IsAdmin() {
		respondError(w, http.StatusForbidden, "cannot access another user's order")
		return
	}
	respondData(w, http.StatusOK, o)
}

// ListAllOrders returns every order, optionally filtered by status. Admin only.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	f := order.Filter{Status: order.Status(r.URL.Query().Get("status"))}

	orders, err := h.orders.ListAll(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondList(w, len(orders), orders)
}

// UpdateOrderStatus moves an order along the status state machine. Admin only.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, err := h.orders.Transition(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

// DeleteOrder removes an order entirely. Admin only.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "order deleted")
}
