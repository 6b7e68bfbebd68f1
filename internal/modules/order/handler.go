package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/cart"
	"github.com/georgemunganga/storefront-backend/internal/modules/user"
)

// Guards are the auth middlewares the order routes need.
type Guards struct {
	Optional     func(http.Handler) http.Handler
	RequireUser  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
}

// Handler exposes order HTTP endpoints.
type Handler struct {
	service   Service
	guards    Guards
	cookieTTL time.Duration
	logger    *zap.Logger
}

func NewHandler(service Service, guards Guards, cookieTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{service: service, guards: guards, cookieTTL: cookieTTL, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(h.guards.Optional).Post("/checkout", h.checkout) // POST /api/v1/orders/checkout

		r.Group(func(r chi.Router) {
			r.Use(h.guards.RequireUser)
			r.Get("/mine", h.listMine)     // GET /api/v1/orders/mine
			r.Get("/mine/{id}", h.getMine) // GET /api/v1/orders/mine/{id}
		})

		r.Group(func(r chi.Router) {
			r.Use(h.guards.RequireAdmin)
			r.Get("/", h.listOrders)                      // GET    /api/v1/orders?status=pending&q=
			r.Get("/{id}", h.getOrder)                    // GET    /api/v1/orders/{id}
			r.Get("/number/{number}", h.getOrderByNumber) // GET    /api/v1/orders/number/{number}
			r.Patch("/{id}/status", h.updateStatus)       // PATCH  /api/v1/orders/{id}/status
			r.Delete("/{id}", h.cancelOrder)              // DELETE /api/v1/orders/{id}
		})
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	cartID := cart.EnsureID(w, r, h.cookieTTL)

	var userID *uuid.UUID
	if id, ok := user.IDFromContext(r.Context()); ok {
		userID = &id
	}

	o, err := h.service.Checkout(r.Context(), cartID, userID, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := user.IDFromContext(r.Context())
	orders, err := h.service.ListUserOrders(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getMine(w http.ResponseWriter, r *http.Request) {
	id, _ := user.IDFromContext(r.Context())
	o, err := h.service.GetUserOrder(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		st, ok := ParseStatus(raw)
		if !ok {
			respond(w, http.StatusBadRequest, map[string]string{"error": "unknown status " + raw})
			return
		}
		filter.Status = st
	}
	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "order cancelled"})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidCheckout), errors.Is(err, ErrEmptyCart):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInsufficientStock):
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond(w, http.StatusServiceUnavailable, map[string]string{"error": "checkout interrupted"})
	default:
		h.logger.Error("order request failed", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
