package main

import (
	"context"
	"net/http"
	"time"

	"hamarabooks/internal/blog"
	"hamarabooks/internal/cart"
	"hamarabooks/internal/catalog"
	"hamarabooks/internal/contact"
	"hamarabooks/internal/httpx"
	"hamarabooks/internal/identity"
	"hamarabooks/internal/profile"
	"hamarabooks/internal/wishlist"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

type handlers struct {
	catalog  *catalog.HTTPHandler
	cart     *cart.HTTPHandler
	wishlist *wishlist.HTTPHandler
	identity *identity.HTTPHandler
	blog     *blog.HTTPHandler
	contact  *contact.HTTPHandler
	profile  *profile.HTTPHandler
}

type routerConfig struct {
	clientSecret   string
	clientTTL      time.Duration
	secureCookie   bool
	allowedOrigins []string
	enableHSTS     bool
	catalogLatency time.Duration
	authLimiter    *httpx.RateLimiter
	// trustProxy takes the client address from X-Forwarded-For and friends.
	// Only set it behind a proxy that overwrites those headers.
	trustProxy bool
	// ready reports whether backing stores are reachable.
	ready func(ctx context.Context) error
}

func newRouter(h handlers, cfg routerConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RecoveryMiddleware(logger))
	if cfg.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware(logger))
	r.Use(middleware.CleanPath)
	r.Use(httpx.CORSMiddleware(cfg.allowedOrigins))
	r.Use(httpx.SecurityHeadersMiddleware(cfg.enableHSTS))
	r.Use(httpx.RequestSizeLimitMiddleware(maxRequestBody))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if cfg.ready != nil {
			if err := cfg.ready(ctx); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/v1", func(r chi.Router) {
		// Catalog views are stateless and served without a client.
		r.Group(func(r chi.Router) {
			r.Use(httpx.LatencyMiddleware(cfg.catalogLatency))
			r.Get("/home", h.catalog.Home)
			r.Get("/books", h.catalog.List)
			r.Get("/books/{id}", h.catalog.Get)
			r.Get("/search", h.catalog.Search)
			r.Get("/search/suggestions", h.catalog.Suggestions)
			r.Get("/categories", h.catalog.Categories)
			r.Get("/authors", h.catalog.Authors)
		})

		r.Get("/blog", h.blog.List)
		r.Get("/blog/{id}", h.blog.Get)
		r.Get("/contact", h.contact.Info)

		r.Group(func(r chi.Router) {
			r.Use(httpx.ClientMiddleware(cfg.clientSecret, cfg.clientTTL, cfg.secureCookie))

			r.Post("/contact", h.contact.Submit)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.cart.Get)
				r.Delete("/", h.cart.Clear)
				r.Post("/items", h.cart.AddItem)
				r.Patch("/items/{id}", h.cart.SetQuantity)
				r.Delete("/items/{id}", h.cart.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.wishlist.Get)
				r.Post("/", h.wishlist.Add)
				r.Delete("/", h.wishlist.Clear)
				r.Get("/{id}", h.wishlist.Contains)
				r.Delete("/{id}", h.wishlist.Remove)
				r.Post("/{id}/move-to-cart", h.wishlist.MoveToCart)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					if cfg.authLimiter != nil {
						r.Use(cfg.authLimiter.Middleware)
					}
					r.Post("/signup", h.identity.SignUp)
					r.Post("/signin", h.identity.SignIn)
					r.Post("/federated", h.identity.SignInFederated)
					r.Post("/federated/fallback", h.identity.FallbackToRedirect)
				})
				r.Get("/federated/callback", h.identity.CompleteFederated)
				r.Post("/signout", h.identity.SignOut)
				r.Get("/session", h.identity.Session)
				r.Get("/session/events", h.identity.Events)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", h.profile.Get)
				r.Put("/", h.profile.Update)
				r.Get("/orders", h.profile.Orders)
			})

			r.Get("/theme", h.profile.Theme)
			r.Put("/theme", h.profile.SetTheme)
			r.Post("/theme/toggle", h.profile.ToggleTheme)
		})
	})

	return r
}
