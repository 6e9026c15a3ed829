// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/roster/internal/auth"
	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/entity"
	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/middleware"
	"github.com/tomtom215/roster/internal/models"
	"github.com/tomtom215/roster/internal/validation"
)

// slowRequestThreshold triggers a warning in the request log.
const slowRequestThreshold = 2 * time.Second

// multipartOverhead is allowed on top of the file cap for form fields and
// part headers.
const multipartOverhead = 1 << 20

// Dependencies are the collaborators wired into the router.
type Dependencies struct {
	Config *config.Config

	// DB is pinged by /health.
	DB Pinger

	Players  *entity.Players
	Managers *entity.Managers
	Trophies *entity.Trophies
	Contacts *entity.Contacts

	Sessions *auth.SessionManager
	Auth     *auth.Handlers
	Origins  *auth.OriginCheck

	// Proxies resolves client addresses behind known reverse proxies. Nil
	// trusts no proxy.
	Proxies *auth.TrustedProxies

	Errors   *ErrorWriter
	Security *logging.SecurityLogger

	// Media serves stored objects under /media/ when the in-memory object
	// store is used. Nil disables the route.
	Media http.Handler

	// StartTime is reported as uptime by /health.
	StartTime time.Time
}

// Router builds the HTTP handler tree.
type Router struct {
	deps Dependencies
	cfg  *config.Config
}

// NewRouter creates a router over deps.
func NewRouter(deps Dependencies) *Router {
	if deps.Errors == nil {
		deps.Errors = &ErrorWriter{}
	}
	if deps.Security == nil {
		deps.Security = logging.NewSecurityLogger()
	}
	if deps.Proxies == nil {
		deps.Proxies, _ = auth.NewTrustedProxies(nil)
	}
	if deps.StartTime.IsZero() {
		deps.StartTime = time.Now()
	}
	return &Router{deps: deps, cfg: deps.Config}
}

// Handler returns the complete middleware stack and routes.
func (rt *Router) Handler() http.Handler {
	onError := rt.deps.Errors.Write
	maxFile := rt.cfg.Upload.MaxFileSizeBytes()

	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(rt.deps.Proxies.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLog(slowRequestThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Decompress(onError))
	r.Use(middleware.Compression)
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		HSTS:       rt.cfg.IsProduction(),
		CDNOrigins: rt.cfg.Security.CDNOrigins,
	}))
	r.Use(rt.corsMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { onError(w, r, ErrRouteNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { onError(w, r, ErrMethodNotAllowed) })

	health := &healthHandler{db: rt.deps.DB, environment: rt.cfg.Server.Environment, started: rt.deps.StartTime}
	r.Get("/health", health.Health)

	if rt.deps.Media != nil {
		r.Handle("/media/*", rt.deps.Media)
	}

	// ========================
	// API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(rt.rateLimitMiddleware())
		r.Use(middleware.BodyLimit(rt.cfg.API.MaxBodyBytes, maxFile+multipartOverhead, onError))
		r.Use(middleware.SuspiciousRequests(rt.deps.Security))
		r.Use(rt.deps.Sessions.Resolve)
		r.Use(rt.deps.Origins.Protect)

		admin := rt.deps.Sessions.RequireAdmin

		mountImageRoutes(r, "/players", admin, &imageHandlers[models.Player, validation.PlayerInput]{
			svc: rt.deps.Players, label: "Player", fromForm: validation.PlayerFromForm, maxFile: maxFile, onError: onError,
		})
		mountImageRoutes(r, "/managers", admin, &imageHandlers[models.Manager, validation.ManagerInput]{
			svc: rt.deps.Managers, label: "Manager", fromForm: validation.ManagerFromForm, maxFile: maxFile, onError: onError,
		})
		mountImageRoutes(r, "/trophies", admin, &imageHandlers[models.Trophy, validation.TrophyInput]{
			svc: rt.deps.Trophies, label: "Trophy", fromForm: validation.TrophyFromForm, maxFile: maxFile, onError: onError,
		})

		contacts := &contactHandlers{svc: rt.deps.Contacts, onError: onError}
		r.Post("/contact", contacts.Submit)
		r.With(admin).Get("/registered-users", contacts.List)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", rt.deps.Auth.Login)
			r.Post("/logout", rt.deps.Auth.Logout)
			r.Get("/status", rt.deps.Auth.Status)
		})
	})

	return r
}

// routeSet is implemented by imageHandlers for every record type.
type routeSet interface {
	List(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	UpdateImage(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func mountImageRoutes(r chi.Router, prefix string, admin func(http.Handler) http.Handler, h routeSet) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", h.List)
		r.With(admin).Post("/", h.Create)
		r.With(admin).Put("/{id}/image", h.UpdateImage)
		r.With(admin).Delete("/{id}", h.Delete)
	})
}
