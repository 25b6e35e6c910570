// Package server assembles the Linguava HTTP surface: middleware, auth and
// dashboard routes, the tutor WebSocket and the operational endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguava/linguava/internal/auth"
	"github.com/linguava/linguava/internal/catalog"
	"github.com/linguava/linguava/internal/learning"
	"github.com/linguava/linguava/internal/metrics"
	"github.com/linguava/linguava/internal/routeguard"
	"github.com/linguava/linguava/internal/tutor"
	"github.com/linguava/linguava/pkg/environment"
	"github.com/linguava/linguava/pkg/httpserver"
	"github.com/linguava/linguava/pkg/requestid"
	"github.com/linguava/linguava/pkg/session"
)

// Deps carries everything the router needs, wired in main.
type Deps struct {
	Env      environment.Environment
	Log      *slog.Logger
	Sessions *session.Manager

	Auth     *auth.Handler
	Catalog  *catalog.Handler
	Learning *learning.Handler
	Tutor    *tutor.Gateway

	// HealthChecks back /healthz; each probes one dependency.
	HealthChecks []func(context.Context) error
}

// NewRouter builds the full route tree. The route guard wraps the
// application routes only; operational endpoints and the tutor WebSocket
// stay outside it so a broken session backend cannot take monitoring or
// in-game tutoring down.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(d.Env))
	r.Use(countRequests)

	r.Group(func(r chi.Router) {
		r.Use(routeguard.Middleware(routeguard.NewSessionResolver(d.Sessions), d.Log))

		r.Get("/", home)
		r.Get(routeguard.LoginPath, loginPage)
		r.Post("/logout", d.Auth.Logout)
		r.Mount(routeguard.AuthPrefix, d.Auth.Router())

		r.Route(routeguard.DashboardPath, func(r chi.Router) {
			r.Get("/", dashboardPage)
			r.Mount("/languages/catalog", d.Catalog.Router())
			r.Mount("/languages", d.Learning.Router())
		})
	})

	r.Get("/ws/tutor", d.Tutor.ServeHTTP)
	r.Get("/healthz", httpserver.HealthCheckHandler(d.Log, d.HealthChecks...))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
