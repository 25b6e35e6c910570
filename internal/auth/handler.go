package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/linguava/linguava/internal/routeguard"
	"github.com/linguava/linguava/pkg/cookie"
	"github.com/linguava/linguava/pkg/environment"
	"github.com/linguava/linguava/pkg/logger"
	"github.com/linguava/linguava/pkg/session"
)

const oauthStateCookie = "oauth_state"

// Handler exposes the sign-in flows over HTTP. It is mounted under /auth,
// with /login rendered by the server package.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	cookies  *cookie.Manager
	log      *slog.Logger
}

// NewHandler wires the auth routes.
func NewHandler(svc *Service, sessions *session.Manager, cookies *cookie.Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, sessions: sessions, cookies: cookies, log: log.With(slog.String("component", "auth_handler"))}
}

// Router returns the chi router for the /auth subtree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/password/register", h.register)
	r.Post("/password/login", h.login)
	r.Post("/magic", h.requestMagicLink)
	r.Get("/magic/qr", h.magicLinkQR)
	r.Get("/google", h.beginGoogle)
	r.Get("/callback", h.callback)
	return r
}

// Logout is mounted at the top level, outside the auth-page class, so a
// signed-in user's request reaches it instead of bouncing to the
// dashboard.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.log.ErrorContext(r.Context(), "logout failed", logger.Error(err))
	}
	http.Redirect(w, r, routeguard.LoginPath, http.StatusSeeOther)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Register(r.Context(), r.PostFormValue("email"), r.PostFormValue("name"), r.PostFormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			httpError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, ErrWeakPassword):
			httpError(w, http.StatusUnprocessableEntity, "password too short")
		default:
			h.log.ErrorContext(r.Context(), "registration failed", logger.Error(err))
			httpError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	h.signInAndRedirect(w, r, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNoPassword):
			httpError(w, http.StatusUnauthorized, "invalid email or password")
		default:
			h.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
			httpError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}
	h.signInAndRedirect(w, r, u)
}

func (h *Handler) requestMagicLink(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RequestMagicLink(r.Context(), r.PostFormValue("email")); err != nil {
		h.log.ErrorContext(r.Context(), "magic link request failed", logger.Error(err))
		httpError(w, http.StatusInternalServerError, "could not send sign-in link")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

// magicLinkQR renders the most recent magic link as a QR code PNG so a
// phone can pick it up during local development. Never served outside the
// development environment.
func (h *Handler) magicLinkQR(w http.ResponseWriter, r *http.Request) {
	if !environment.IsDevelopment(r.Context()) {
		http.NotFound(w, r)
		return
	}
	link := h.svc.LastMagicLink()
	if link == "" {
		httpError(w, http.StatusNotFound, "no magic link issued yet")
		return
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (h *Handler) beginGoogle(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not start sign-in")
		return
	}
	authURL, err := h.svc.BeginOAuth("google", state)
	if err != nil {
		httpError(w, http.StatusNotFound, "sign-in with google is not configured")
		return
	}
	h.cookies.SetSigned(w, oauthStateCookie, state, cookie.WithMaxAge(600))
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// callback completes both external flows: ?provider=google carries an
// OAuth code, otherwise ?code is an emailed magic-link code. Every failure
// lands back on the login page with a diagnostic code instead of an error
// page.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	// Whatever breaks mid-exchange, the visitor lands on a functioning
	// login page, never a raw error page.
	defer func() {
		if rec := recover(); rec != nil {
			h.log.ErrorContext(r.Context(), "auth callback panicked", slog.Any("panic", rec))
			h.redirectLoginError(w, r, routeguard.ErrCodeUnexpected)
		}
	}()

	var (
		u   *User
		err error
	)
	if r.URL.Query().Get("provider") == "google" {
		u, err = h.completeGoogle(w, r)
	} else {
		u, err = h.svc.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	}
	if err != nil {
		h.log.WarnContext(r.Context(), "auth callback failed", logger.Error(err), logger.Path(r.URL.Path))
		h.redirectLoginError(w, r, routeguard.ErrCodeCallbackError)
		return
	}
	h.signInAndRedirect(w, r, u)
}

func (h *Handler) completeGoogle(w http.ResponseWriter, r *http.Request) (*User, error) {
	state, err := h.cookies.GetSigned(r, oauthStateCookie)
	if err != nil || state == "" || state != r.URL.Query().Get("state") {
		return nil, ErrStateMismatch
	}
	h.cookies.Delete(w, oauthStateCookie)
	return h.svc.CompleteOAuth(r.Context(), "google", r.URL.Query().Get("code"))
}

// signInAndRedirect issues the session and forwards to the remembered
// destination if it is site-local, the dashboard otherwise.
func (h *Handler) signInAndRedirect(w http.ResponseWriter, r *http.Request, u *User) {
	if _, err := h.sessions.Authenticate(r.Context(), w, r, u.ID, u.Email); err != nil {
		h.log.ErrorContext(r.Context(), "session issue failed", logger.Error(err), logger.UserID(u.ID.String()))
		h.redirectLoginError(w, r, routeguard.ErrCodeSessionError)
		return
	}

	target := routeguard.DashboardPath
	if t := r.FormValue(routeguard.RedirectToParam); routeguard.IsLocalTarget(t) {
		target = t
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, routeguard.LoginPath+"?"+url.Values{routeguard.ErrorParam: {code}}.Encode(), http.StatusSeeOther)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
