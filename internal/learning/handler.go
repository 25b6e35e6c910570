package learning

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linguava/linguava/pkg/logger"
	"github.com/linguava/linguava/pkg/session"
)

// Handler serves the studied-languages endpoints under
// /dashboard/languages. The route guard ensures only authenticated
// requests reach it, but every handler still resolves the user itself.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With(slog.String("component", "learning_handler"))}
}

// Router returns the chi router for the /dashboard/languages subtree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Patch("/{id}", h.updateProficiency)
	r.Post("/{id}/primary", h.setPrimary)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}
	langs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if langs == nil {
		langs = []UserLanguage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": langs})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	var body struct {
		LanguageCode string      `json:"language_code"`
		Proficiency  Proficiency `json:"proficiency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ul, err := h.svc.Add(r.Context(), userID, body.LanguageCode, body.Proficiency)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ul)
}

func (h *Handler) updateProficiency(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	var body struct {
		Proficiency Proficiency `json:"proficiency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ul, err := h.svc.UpdateProficiency(r.Context(), userID, id, body.Proficiency)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ul)
}

func (h *Handler) setPrimary(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}
	if err := h.svc.SetPrimary(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveTarget extracts the signed-in user and the {id} path parameter,
// writing the error response itself when either is missing.
func (h *Handler) resolveTarget(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, ok bool) {
	userID, ok = currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "studied language not found"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "studied language not found"})
	case errors.Is(err, ErrAlreadyStudying):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "language already being studied"})
	case errors.Is(err, ErrUnknownLanguage):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "language not in catalog"})
	case errors.Is(err, ErrInvalidProficiency):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid proficiency level"})
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "learning request failed", logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func currentUserID(r *http.Request) (uuid.UUID, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok || !s.IsAuthenticated() {
		return uuid.Nil, false
	}
	return *s.UserID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
