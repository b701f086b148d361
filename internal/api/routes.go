package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"drift.share/config"
	"drift.share/internal/store"
)

func SetupRouter(s store.Store, cfg *config.Config) *chi.Mux {
	h := NewHandler(s, cfg)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health
	r.Get("/health", h.Health)

	// Relay protocol: publish under a topic, poll a topic's retained
	// messages. Topic names are opaque digests; nothing here knows how
	// they were derived.
	r.Post("/{topic}", h.Publish)
	r.Get("/{topic}/json", h.Poll)

	return r
}

// requestLogger logs one line per request. Topic names are derived
// digests and rotate per window, so logging the path does not leak
// anything durable; bodies are never logged.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
