package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *ListHandler, corsAllowOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(CORS(corsAllowOrigins))

	r.Get("/health", healthHandler)

	r.Route("/api/cart/{sessionId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Put("/business", h.SetBusiness)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.SetQuantity)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Delete("/categories/{category}", h.ClearCategory)
		r.Delete("/requirements", h.ClearRequirement)
		r.Post("/share", h.Share)
		r.Get("/export", h.Export)
	})

	r.Route("/api/shared/{listId}", func(r chi.Router) {
		r.Get("/", h.GetShared)
		r.Post("/export", h.ExportShared)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "service": "listbuilder-service"}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
