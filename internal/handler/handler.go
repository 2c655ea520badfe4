// Package handler exposes the REST surface: routing, JSON envelopes, and the
// mapping from domain errors to HTTP status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Mikaelbfaa/cardshop/internal/auth"
	"github.com/Mikaelbfaa/cardshop/internal/domain/cart"
	"github.com/Mikaelbfaa/cardshop/internal/domain/order"
	"github.com/Mikaelbfaa/cardshop/internal/domain/product"
	"github.com/Mikaelbfaa/cardshop/internal/domain/user"
	"github.com/Mikaelbfaa/cardshop/pkg/httpmiddleware"
)

// Handler carries the domain services behind the REST surface.
type Handler struct {
	products product.Repository
	users    *user.Service
	carts    *cart.Service
	orders   *order.Service
	tokens   *auth.Manager
}

// New constructs a Handler with the required domain dependencies.
func New(
	products product.Repository,
	users *user.Service,
	carts *cart.Service,
	orders *order.Service,
	tokens *auth.Manager,
) *Handler {
	return &Handler{
		products: products,
		users:    users,
		carts:    carts,
		orders:   orders,
		tokens:   tokens,
	}
}

// Router builds the chi router for the full API. authLimit, when non-nil, is
// the stricter rate limit applied to the credential endpoints on top of any
// global limit configured outside.
func (h *Handler) Router(authLimit httpmiddleware.Middleware) chi.Router {
	r := chi.NewRouter()

	r.NotFound(frameworkError(http.StatusNotFound, "route not found"))
	r.MethodNotAllowed(frameworkError(http.StatusMethodNotAllowed, "method not allowed"))

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate, h.RequireAdmin)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if authLimit != nil {
				r.Use(authLimit)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Post("/logout", h.Logout)
			r.With(h.RequireAdmin).Delete("/{id}", h.DeleteUser)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Put("/items/{productId}", h.UpdateCartItem)
		r.Delete("/items/{productId}", h.RemoveCartItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.With(h.RequireAdmin).Get("/all", h.ListAllOrders)
		r.Get("/{id}", h.GetOrder)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
			r.Delete("/{id}", h.DeleteOrder)
		})
	})

	return r
}

// Response envelopes.

type successEnvelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// frameworkBody is the shape for router-level failures (unknown route,
// recovered panic), distinct from application errors.
type frameworkBody struct {
	Error struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func respondList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Count: &count, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, successEnvelope{Success: true, Message: msg})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Success: false, Message: msg})
}

func frameworkError(status int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body frameworkBody
		body.Error.Message = msg
		body.Error.Status = status
		writeJSON(w, status, body)
	}
}

// respondDomainError classifies a domain error into an HTTP status. The
// mapping is type-based throughout; no message inspection.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cartStock  *cart.InsufficientStockError
		orderStock *order.InsufficientStockError
		transition *order.InvalidTransitionError
		incompType *product.IncompatibleCardTypeError
	)

	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, rootMessage(err))

	case errors.Is(err, product.ErrNameTaken),
		errors.Is(err, product.ErrInUse),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrCPFTaken):
		respondError(w, http.StatusConflict, rootMessage(err))

	case errors.Is(err, user.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, rootMessage(err))

	case errors.Is(err, user.ErrSelfDelete),
		errors.Is(err, user.ErrEmptyUpdate),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrCartEmpty),
		errors.Is(err, order.ErrBlankAddress),
		errors.Is(err, order.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, rootMessage(err))

	case errors.As(err, &cartStock),
		errors.As(err, &orderStock),
		errors.As(err, &transition),
		errors.As(err, &incompType):
		respondError(w, http.StatusBadRequest, rootMessage(err))

	default:
		zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage unwraps contextual prefixes so the client sees the domain
// message, not the internal wrap chain.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}
	return nil
}

// RecoveredPanicBody writes the framework-level 500 body used by the
// recovery middleware.
func RecoveredPanicBody(w http.ResponseWriter) {
	var body frameworkBody
	body.Error.Message = "internal server error"
	body.Error.Status = http.StatusInternalServerError
	writeJSON(w, http.StatusInternalServerError, body)
}
