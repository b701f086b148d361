package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"drift.share/config"
	"drift.share/internal/models"
	"drift.share/internal/store"
)

// maxBodyBytes caps published message bodies.
const maxBodyBytes = 1 << 20

type Handler struct {
	store  store.Store
	config *config.Config
}

func NewHandler(s store.Store, cfg *config.Config) *Handler {
	return &Handler{
		store:  s,
		config: cfg,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Publish stores the request body as one message under the topic. The
// relay never interprets the body; the topic is the only routing key.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if !store.ValidTopic(topic) {
		h.error(w, http.StatusBadRequest, "invalid topic")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.error(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(body) > maxBodyBytes {
		h.error(w, http.StatusRequestEntityTooLarge, "message too large")
		return
	}
	if len(body) == 0 {
		h.error(w, http.StatusBadRequest, "message body is required")
		return
	}

	msg := &models.Message{
		ID:      uuid.NewString(),
		Time:    time.Now().Unix(),
		Event:   models.EventMessage,
		Message: string(body),
		Title:   r.Header.Get("X-Title"),
	}

	if err := h.store.Publish(r.Context(), topic, msg); err != nil {
		h.handleStoreError(w, err)
		return
	}

	h.json(w, http.StatusOK, msg)
}

// Poll replays the topic's retained messages as newline-delimited
// JSON. An unknown topic is an empty replay, not a 404.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if !store.ValidTopic(topic) {
		h.error(w, http.StatusBadRequest, "invalid topic")
		return
	}

	since := parseSince(r.URL.Query().Get("since"), h.config.Store.Retention)

	msgs, err := h.store.Messages(r.Context(), topic, since)
	if err != nil {
		h.handleStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	for _, msg := range msgs {
		if err := enc.Encode(msg); err != nil {
			return
		}
	}
}

// parseSince maps the query parameter onto an absolute cutoff. It
// accepts Go duration strings ("12h"), "all" for the full retention,
// and nothing else; garbage falls back to the full retention window so
// a confused client sees more, not less.
func parseSince(raw string, retention time.Duration) time.Time {
	if raw == "" || raw == "all" {
		return time.Now().Add(-retention)
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return time.Now().Add(-retention)
	}
	return time.Now().Add(-d)
}

func (h *Handler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) error(w http.ResponseWriter, status int, message string) {
	h.json(w, status, ErrorResponse{Error: message})
}

func (h *Handler) handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidTopic):
		h.error(w, http.StatusBadRequest, "invalid topic")
	default:
		h.error(w, http.StatusInternalServerError, "internal error")
	}
}
