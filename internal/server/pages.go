package server

import (
	"encoding/json"
	"net/http"

	"github.com/linguava/linguava/internal/routeguard"
	"github.com/linguava/linguava/pkg/session"
)

// The web UI is rendered by the frontend; these endpoints return the JSON
// it hydrates from.

func home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "linguava"})
}

// loginPage surfaces the guard's diagnostics so the frontend can show an
// error banner and replay the redirect target through the sign-in form.
func loginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]string{
		"page":       "login",
		"error":      q.Get(routeguard.ErrorParam),
		"redirectTo": q.Get(routeguard.RedirectToParam),
	})
}

func dashboardPage(w http.ResponseWriter, r *http.Request) {
	// The guard already redirected anonymous visitors; a missing session
	// here means the guard was misconfigured, not that the user lacks one.
	s, ok := session.FromContext(r.Context())
	if !ok || !s.IsAuthenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"page":  "dashboard",
		"email": s.Email,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
