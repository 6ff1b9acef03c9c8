package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-dispatch/internal/http/handlers"
	mw "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/access"
)

const requestTimeout = 10 * time.Second

// Deps groups what the router mounts.
type Deps struct {
	Base     *handlers.Handlers
	Auth     *handlers.AuthHandler
	Orders   *handlers.OrderHandler
	Partners *handlers.PartnerHandler

	Resolver mw.PrincipalResolver
	Logger   logx.Logger

	// RateLimit applies to every route; LoginLimit only to login. Nil disables.
	RateLimit  func(http.Handler) http.Handler
	LoginLimit func(http.Handler) http.Handler
	// Metrics is served on /metrics. Nil uses the default registry.
	Metrics http.Handler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Observability(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	if d.RateLimit != nil {
		r.Use(d.RateLimit)
	}

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", d.Metrics)
	r.NotFound(d.Base.NotFound)
	r.MethodNotAllowed(d.Base.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(optional(d.LoginLimit)...).Post("/login", d.Auth.Login)
			r.Post("/register", d.Auth.Register)
			r.With(mw.Authenticate(d.Resolver, d.Logger)).Get("/me", d.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(d.Resolver, d.Logger))

			r.Route("/orders", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(mw.Require(access.AdminOnly))
					r.Post("/", d.Orders.Create)
					r.Get("/", d.Orders.List)
					r.Get("/{id}", d.Orders.Get)
					r.Put("/{id}/assign", d.Orders.Assign)
				})
				r.With(mw.Require(access.PartnerOnly)).Put("/{id}/status", d.Orders.UpdateStatus)
			})

			r.Route("/partners", func(r chi.Router) {
				r.Use(mw.Require(access.AdminOnly))
				r.Post("/", d.Partners.Create)
				r.Get("/", d.Partners.List)
				r.Get("/{id}", d.Partners.Get)
			})

			r.Route("/partner", func(r chi.Router) {
				r.Use(mw.Require(access.PartnerOnly))
				r.Get("/orders", d.Partners.MyOrders)
				r.Get("/orders/active", d.Partners.MyActiveOrders)
				r.Put("/availability", d.Partners.SetAvailability)
				r.Put("/location", d.Partners.SetLocation)
				r.Get("/profile", d.Partners.Profile)
			})
		})
	})

	return r
}

func optional(m func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if m == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{m}
}
