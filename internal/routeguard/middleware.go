package routeguard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/linguava/linguava/internal/metrics"
	"github.com/linguava/linguava/pkg/logger"
	"github.com/linguava/linguava/pkg/session"
)

// SessionResolver resolves the request's session into a Lookup. It must not
// panic; a failing backend is reported as FailedLookup.
type SessionResolver func(r *http.Request) Lookup

// sessionGetter is the slice of the session manager the resolver needs.
type sessionGetter interface {
	Get(ctx context.Context, r *http.Request) (*session.Session, error)
}

// NewSessionResolver adapts the session manager to the guard's lookup
// states. Missing and expired sessions are Absent; everything else is a
// backend failure.
func NewSessionResolver(manager sessionGetter) SessionResolver {
	return func(r *http.Request) Lookup {
		s, err := manager.Get(r.Context(), r)
		switch {
		case err == nil && s.IsAuthenticated():
			return ValidLookup(s)
		case err == nil:
			// Anonymous sessions exist in the store but carry no principal.
			return AbsentLookup()
		case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
			return AbsentLookup()
		default:
			return FailedLookup(err)
		}
	}
}

// skipSuffixes are static asset extensions the guard never inspects.
var skipSuffixes = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"}

// SkipPath reports whether the guard should ignore the path entirely:
// static assets, image optimization routes and the favicon.
func SkipPath(p string) bool {
	if strings.HasPrefix(p, "/_next/static") || strings.HasPrefix(p, "/_next/image") {
		return true
	}
	if p == "/favicon.ico" {
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	for _, suffix := range skipSuffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}

// Middleware evaluates the guard on every non-asset request and applies the
// decision. Valid sessions are placed in the request context for downstream
// handlers.
//
// Any panic during evaluation fails open: the request continues and the
// failure is logged. Dropping all traffic because of a broken auth backend
// is a worse outcome than serving one request unguarded.
func Middleware(resolve SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SkipPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			decision, lookup := safeEvaluate(resolve, r, log)

			if lookup.State == LookupFailed {
				log.WarnContext(r.Context(), "session lookup failed",
					logger.Path(r.URL.Path), logger.Error(lookup.Err))
			}

			if decision.Redirect {
				metrics.GuardDecisions.WithLabelValues("redirect").Inc()
				http.Redirect(w, r, decision.Target(), http.StatusSeeOther)
				return
			}

			metrics.GuardDecisions.WithLabelValues("continue").Inc()

			if lookup.State == Valid {
				r = r.WithContext(session.WithContext(r.Context(), lookup.Session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// safeEvaluate resolves the session and evaluates the rules, converting any
// panic into a fail-open Continue.
func safeEvaluate(resolve SessionResolver, r *http.Request, log *slog.Logger) (decision Decision, lookup Lookup) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.GuardDecisions.WithLabelValues("fail_open").Inc()
			log.ErrorContext(r.Context(), "route guard panicked, failing open",
				logger.Path(r.URL.Path), slog.Any("panic", rec))
			decision = Continue()
			lookup = AbsentLookup()
		}
	}()

	lookup = resolve(r)
	decision = Evaluate(r.URL.Path, r.URL.Query(), lookup)
	return decision, lookup
}
