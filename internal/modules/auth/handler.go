package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/user"
)

// Handler exposes login and the admin check.
type Handler struct {
	service Service
	guard   *Guard
	logger  *zap.Logger
}

func NewHandler(service Service, guard *Guard, logger *zap.Logger) *Handler {
	return &Handler{service: service, guard: guard, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", h.login)                                     // POST /api/v1/auth/login
		r.With(h.guard.RequireUser).Get("/admin-check", h.adminCheck) // GET  /api/v1/auth/admin-check
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Redirect string `json:"redirect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	token.Redirect = SanitizeRedirectPath(req.Redirect, "/")
	respond(w, http.StatusOK, token)
}

// adminCheck reports the tri-state decision so clients can offer a retry.
func (h *Handler) adminCheck(w http.ResponseWriter, r *http.Request) {
	id, _ := user.IDFromContext(r.Context())
	decision := h.guard.checker.Check(r.Context(), id)
	body := map[string]interface{}{"decision": decision.String(), "is_admin": decision == Authorized}
	if decision == TimedOut {
		body["retry_after_seconds"] = h.guard.checker.RetryAfter().Seconds()
	}
	respond(w, http.StatusOK, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
