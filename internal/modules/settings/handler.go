package settings

import (
	"encoding/json"
	"errors"
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
	r.Route("/api/v1/settings", func(r chi.Router) {
		r.Get("/", h.get)                              // GET /api/v1/settings
		r.With(h.requireAdmin).Put("/{key}", h.update) // PUT /api/v1/settings/{key}
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var value json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s, err := h.service.Update(r.Context(), chi.URLParam(r, "key"), value)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownKey):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidSettings):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("settings request failed", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
