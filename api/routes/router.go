package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercanlabs/storefront-backend/api/controllers"
	"github.com/mercanlabs/storefront-backend/api/middleware"
	cartsvc "github.com/mercanlabs/storefront-backend/internal/cart"
	checkoutsvc "github.com/mercanlabs/storefront-backend/internal/checkout"
	"github.com/mercanlabs/storefront-backend/internal/identity"
	ordersvc "github.com/mercanlabs/storefront-backend/internal/orders"
	reviewsvc "github.com/mercanlabs/storefront-backend/internal/reviews"
	usersvc "github.com/mercanlabs/storefront-backend/internal/users"
	"github.com/mercanlabs/storefront-backend/pkg/config"
	"github.com/mercanlabs/storefront-backend/pkg/db"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
	"github.com/mercanlabs/storefront-backend/pkg/metrics"
	"github.com/mercanlabs/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Resolver *identity.Resolver
	Metrics  *metrics.HTTPMetrics

	Users    usersvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Reviews  reviewsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.Metrics),
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

	var dbPinger, cachePinger controllers.Pinger
	if deps.DB != nil {
		dbPinger = deps.DB
	}
	if deps.Redis != nil {
		cachePinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, cachePinger, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.Users, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.Register(deps.Users, logg))
		r.Post("/guest", controllers.GuestSession(deps.Users, logg))
	})

	// Review listing is public; everything below /api otherwise expects a
	// bearer token, guest or registered.
	r.Get("/api/products/{productId}/reviews", controllers.ListReviews(deps.Reviews, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Resolver, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(deps.Cart, logg))
			r.Post("/", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Post("/basket/checkout", controllers.CheckoutCart(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(deps.Checkout, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})
		r.Get("/users/me/orders", controllers.ListOrders(deps.Orders, logg))

		r.Post("/products/{productId}/reviews", controllers.CreateReview(deps.Reviews, logg))
	})

	return r
}
