package message

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
	r.Route("/api/v1/messages", func(r chi.Router) {
		r.Post("/", h.submit) // POST /api/v1/messages

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/", h.list)                // GET   /api/v1/messages
			r.Patch("/{id}/read", h.markRead) // PATCH /api/v1/messages/{id}/read
		})
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := h.service.Submit(r.Context(), req)
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid message", "fields": verr})
	case err != nil:
		h.logger.Error("failed to save contact message", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		respond(w, http.StatusCreated, m)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contact messages", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	respond(w, http.StatusOK, msgs)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.Error("failed to mark message read", zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		respond(w, http.StatusOK, map[string]string{"status": "message marked as read"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
