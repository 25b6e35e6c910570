// Package routeguard decides, per request, whether to pass a request
// through, send the visitor to the login surface, or send an authenticated
// visitor to the dashboard. The decision is a pure function of the request
// path, its query parameters and the session lookup result; session state is
// always passed in explicitly.
package routeguard

import (
	"net/url"
	"strings"

	"github.com/linguava/linguava/pkg/session"
)

// Route paths and query parameter names the guard operates on.
const (
	LoginPath     = "/login"
	AuthPrefix    = "/auth"
	CallbackPath  = "/auth/callback"
	DashboardPath = "/dashboard"

	RedirectToParam = "redirectTo"
	ErrorParam      = "error"
)

// Error codes surfaced to the login page via the "error" query parameter.
const (
	ErrCodeSessionError  = "session_error"
	ErrCodeCallbackError = "auth_callback_error"
	ErrCodeUnexpected    = "unexpected_error"
)

// Class is the route classification of a request path.
type Class int

const (
	// ClassOther covers everything that is neither an auth surface nor the
	// protected dashboard area, including /auth/callback.
	ClassOther Class = iota
	// ClassAuthPage covers sign-in/sign-up/magic-link surfaces.
	ClassAuthPage
	// ClassProtected covers the dashboard area requiring authentication.
	ClassProtected
)

// Classify assigns exactly one class to a path, first match wins.
// The OAuth/magic-link callback is carved out of the auth-page class so it
// can complete its code exchange regardless of the session state.
func Classify(path string) Class {
	switch {
	case strings.HasPrefix(path, CallbackPath):
		return ClassOther
	case strings.HasPrefix(path, LoginPath) || strings.HasPrefix(path, AuthPrefix):
		return ClassAuthPage
	case strings.HasPrefix(path, DashboardPath):
		return ClassProtected
	default:
		return ClassOther
	}
}

// LookupState is the outcome of resolving the request's session.
type LookupState int

const (
	// Absent means no session or an expired one.
	Absent LookupState = iota
	// Valid means an authenticated session was found.
	Valid
	// LookupFailed means the session backend errored; the request carries no
	// usable session state.
	LookupFailed
)

// Lookup is the session lookup result handed to Evaluate.
type Lookup struct {
	State   LookupState
	Session *session.Session
	Err     error
}

// ValidLookup wraps an authenticated session.
func ValidLookup(s *session.Session) Lookup {
	return Lookup{State: Valid, Session: s}
}

// AbsentLookup marks a request without a session.
func AbsentLookup() Lookup {
	return Lookup{State: Absent}
}

// FailedLookup marks a session backend failure.
func FailedLookup(err error) Lookup {
	return Lookup{State: LookupFailed, Err: err}
}

// Decision is the guard's verdict: pass through or redirect.
type Decision struct {
	Redirect bool
	Location string
	Query    url.Values
}

// Continue passes the request through unmodified.
func Continue() Decision {
	return Decision{}
}

// RedirectTo redirects to the given path with the given query.
func RedirectTo(path string, query url.Values) Decision {
	return Decision{Redirect: true, Location: path, Query: query}
}

// Target renders the redirect location including its query string.
func (d Decision) Target() string {
	if len(d.Query) == 0 {
		return d.Location
	}
	return d.Location + "?" + d.Query.Encode()
}

// input carries everything one evaluation needs.
type input struct {
	path   string
	class  Class
	query  url.Values
	lookup Lookup
}

// rule is one step of the ordered decision list. It returns its decision and
// whether it claimed the request; later rules never see a claimed request.
type rule struct {
	name  string
	apply func(in input) (Decision, bool)
}

// rules is the guard's contract: evaluated top to bottom, first match wins.
// Reordering entries changes observable behavior.
var rules = []rule{
	{
		// A failing session backend must not take the site down: anything
		// outside the auth surfaces bounces to login with a diagnostic code,
		// while auth pages render and handle the error themselves.
		name: "session lookup failed",
		apply: func(in input) (Decision, bool) {
			if in.lookup.State != LookupFailed {
				return Decision{}, false
			}
			if in.class == ClassAuthPage {
				return Continue(), true
			}
			return RedirectTo(LoginPath, url.Values{ErrorParam: {ErrCodeSessionError}}), true
		},
	},
	{
		// Signed-in visitors have no business on login or sign-up pages.
		name: "authenticated on auth page",
		apply: func(in input) (Decision, bool) {
			if in.lookup.State == Valid && in.class == ClassAuthPage && !strings.HasPrefix(in.path, CallbackPath) {
				return RedirectTo(DashboardPath, url.Values{}), true
			}
			return Decision{}, false
		},
	},
	{
		// Anonymous visitors are sent to login, remembering where they were
		// headed so they land there after signing in.
		name: "anonymous on protected area",
		apply: func(in input) (Decision, bool) {
			if in.lookup.State == Absent && in.class == ClassProtected {
				return RedirectTo(LoginPath, url.Values{RedirectToParam: {in.path}}), true
			}
			return Decision{}, false
		},
	},
	{
		// Single-use continuation: a signed-in request still carrying a
		// redirectTo parameter is forwarded there with the parameter
		// consumed. Only site-local targets qualify; anything not starting
		// with exactly one "/" stays put.
		name: "consume redirect intent",
		apply: func(in input) (Decision, bool) {
			if in.lookup.State != Valid {
				return Decision{}, false
			}
			target := in.query.Get(RedirectToParam)
			if !IsLocalTarget(target) {
				return Decision{}, false
			}
			remaining := make(url.Values, len(in.query))
			for k, v := range in.query {
				if k != RedirectToParam {
					remaining[k] = v
				}
			}
			return RedirectTo(target, remaining), true
		},
	},
}

// Evaluate runs the ordered rule list over one request. It is pure: no side
// effects, same inputs produce the same decision, and a Continue decision is
// stable under re-evaluation.
func Evaluate(path string, query url.Values, lookup Lookup) Decision {
	in := input{
		path:   path,
		class:  Classify(path),
		query:  query,
		lookup: lookup,
	}

	for _, r := range rules {
		if d, ok := r.apply(in); ok {
			return d
		}
	}
	return Continue()
}

// IsLocalTarget accepts only site-local absolute paths. Targets without a
// leading "/" and protocol-relative "//" targets would leave the site.
func IsLocalTarget(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
