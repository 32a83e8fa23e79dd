package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the operator API.
func NewRouter(session *SessionHandler, scanner *ScannerHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", session.GetState)
			r.Post("/code", session.SetCode)
			r.Post("/lookup", session.Lookup)
			r.Post("/cart", session.AddToCart)
			r.Post("/purchase", session.Purchase)
			r.Post("/reset", session.Reset)
			r.Post("/scan", session.BeginScan)
			r.Delete("/scan", session.CancelScan)
		})
		r.Post("/scanner/decode", scanner.Decode)
	})

	return r
}
