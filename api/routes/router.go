package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mitraponics/storefront-backend/api/controllers"
	"github.com/mitraponics/storefront-backend/api/middleware"
	cartsvc "github.com/mitraponics/storefront-backend/internal/cart"
	checkoutsvc "github.com/mitraponics/storefront-backend/internal/checkout"
	"github.com/mitraponics/storefront-backend/internal/identity"
	ordersvc "github.com/mitraponics/storefront-backend/internal/orders"
	productsvc "github.com/mitraponics/storefront-backend/internal/products"
	uploadsvc "github.com/mitraponics/storefront-backend/internal/uploads"
	usersvc "github.com/mitraponics/storefront-backend/internal/users"
	"github.com/mitraponics/storefront-backend/pkg/auth/session"
	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/db"
	"github.com/mitraponics/storefront-backend/pkg/logger"
	"github.com/mitraponics/storefront-backend/pkg/redis"
)

// NewRouter wires every storefront route onto a chi mux.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.Checker,
	resolver *identity.Resolver,
	metricsRegistry *prometheus.Registry,
	userService usersvc.Service,
	productService productsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	orderService ordersvc.Service,
	uploadService uploadsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	// stored product images
	if cfg.Uploads.PublicBase != "" && cfg.Uploads.Dir != "" {
		uploadsFS := http.StripPrefix(cfg.Uploads.PublicBase, http.FileServer(http.Dir(cfg.Uploads.Dir)))
		r.Method(http.MethodGet, cfg.Uploads.PublicBase+"/*", uploadsFS)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg, cfg.Checkout.IdempotencyTTL))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.Register(userService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(userService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.Logout(userService, logg))
			r.Get("/me", controllers.Me(userService, logg))
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminRegister(userService, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AdminLogin(userService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.Cart, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg, false))
			r.Get("/{idOrSlug}", controllers.GetProduct(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Put("/items/{itemID}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(resolver, logg))
			r.Use(middleware.Idempotency(redisClient, logg, cfg.Checkout.IdempotencyTTL))

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(orderService, logg))
				r.Get("/{id}", controllers.GetOrder(orderService, logg))
				r.Post("/{id}/cancel", controllers.CancelOrder(orderService, logg))
				r.Delete("/{id}", controllers.DeleteOrder(orderService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.RateLimit(redisClient, logg, cfg.APIRateLimit.Limit, cfg.APIRateLimit.Window))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg, true))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Put("/{id}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{id}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(orderService, logg))
			r.Get("/{id}", controllers.AdminGetOrder(orderService, logg))
			r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(orderService, logg))
			r.Delete("/{id}", controllers.AdminDeleteOrder(orderService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(userService, logg))
			r.Get("/{id}", controllers.AdminGetUser(userService, logg))
			r.Put("/{id}", controllers.AdminUpdateUser(userService, logg))
			r.Delete("/{id}", controllers.AdminDeleteUser(userService, logg))
		})

		maxMemory := int64(cfg.Uploads.MaxUploadMB) << 20
		r.Post("/uploads", controllers.UploadImage(uploadService, logg, maxMemory))
	})

	return r
}
