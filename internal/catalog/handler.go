package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

// Router returns the chi router for the /languages subtree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{code}", h.get)
	return r
}

// list returns the catalog, filtered by ?q= when present.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	results := h.catalog.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []Language{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": results})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	l, ok := h.catalog.Get(chi.URLParam(r, "code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "language not found"})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
