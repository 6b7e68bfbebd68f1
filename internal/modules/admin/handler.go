package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service      Service
	requireAdmin func(http.Handler) http.Handler
	logger       *zap.Logger
}

func NewHandler(service Service, requireAdmin func(http.Handler) http.Handler, logger *zap.Logger) *Handler {
	return &Handler{service: service, requireAdmin: requireAdmin, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/overview", h.overview) // GET /api/v1/admin/overview
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to load admin overview", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	respond(w, http.StatusOK, o)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
