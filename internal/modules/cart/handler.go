package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
)

const (
	CookieName = "cart_id"
	HeaderName = "X-Cart-ID"
)

// IDFromRequest returns the cart id carried by the request, header first.
// Values that are not UUIDs are ignored.
func IDFromRequest(r *http.Request) (string, bool) {
	candidates := []string{r.Header.Get(HeaderName)}
	if c, err := r.Cookie(CookieName); err == nil {
		candidates = append(candidates, c.Value)
	}
	for _, v := range candidates {
		if id, err := uuid.Parse(v); err == nil {
			return id.String(), true
		}
	}
	return "", false
}

// EnsureID returns the request's cart id, minting one and setting the cookie
// when the request carries none. The id is echoed in the X-Cart-ID header.
func EnsureID(w http.ResponseWriter, r *http.Request, ttl time.Duration) string {
	id, ok := IDFromRequest(r)
	if !ok {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(HeaderName, id)
	return id
}

// Handler exposes the cart HTTP endpoints.
type Handler struct {
	service   Service
	cookieTTL time.Duration
	logger    *zap.Logger
}

func NewHandler(service Service, cookieTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{service: service, cookieTTL: cookieTTL, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.getCart)                            // GET /api/v1/cart
		r.Delete("/", h.clearCart)                       // DELETE /api/v1/cart
		r.Post("/items", h.addItem)                      // POST /api/v1/cart/items
		r.Patch("/items/{product_id}", h.updateQuantity) // PATCH /api/v1/cart/items/{product_id}
		r.Delete("/items/{product_id}", h.removeItem)    // DELETE /api/v1/cart/items/{product_id}
		r.Post("/open", h.setOpen(true))                 // POST /api/v1/cart/open
		r.Post("/close", h.setOpen(false))               // POST /api/v1/cart/close
		r.Post("/toggle", h.toggle)                      // POST /api/v1/cart/toggle
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.GetCart(r.Context(), id)
	h.reply(w, v, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	if body.Quantity < 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return
	}
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.AddItem(r.Context(), id, body.ProductID, body.Quantity)
	h.reply(w, v, err)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.UpdateQuantity(r.Context(), id, chi.URLParam(r, "product_id"), body.Quantity)
	h.reply(w, v, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.RemoveItem(r.Context(), id, chi.URLParam(r, "product_id"))
	h.reply(w, v, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.ClearCart(r.Context(), id)
	h.reply(w, v, err)
}

func (h *Handler) setOpen(open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := EnsureID(w, r, h.cookieTTL)
		v, err := h.service.SetOpen(r.Context(), id, open)
		h.reply(w, v, err)
	}
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id := EnsureID(w, r, h.cookieTTL)
	v, err := h.service.ToggleOpen(r.Context(), id)
	h.reply(w, v, err)
}

func (h *Handler) reply(w http.ResponseWriter, v *View, err error) {
	switch {
	case err == nil:
		respond(w, http.StatusOK, v)
	case errors.Is(err, catalog.ErrNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrOutOfStock):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("cart request failed", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
