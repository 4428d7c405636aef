package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mdbytes/reads-backend/api/controllers"
	"github.com/mdbytes/reads-backend/api/middleware"
	"github.com/mdbytes/reads-backend/internal/auth"
	cartsvc "github.com/mdbytes/reads-backend/internal/cart"
	"github.com/mdbytes/reads-backend/internal/catalog"
	checkoutsvc "github.com/mdbytes/reads-backend/internal/checkout"
	"github.com/mdbytes/reads-backend/internal/companies"
	"github.com/mdbytes/reads-backend/internal/customers"
	ordersvc "github.com/mdbytes/reads-backend/internal/orders"
	"github.com/mdbytes/reads-backend/internal/products"
	"github.com/mdbytes/reads-backend/pkg/auth/session"
	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/metrics"
	"github.com/mdbytes/reads-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the HTTP surface needs wired in.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           pinger
	Redis        *redis.Client
	Sessions     sessionManager
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	AuthService  auth.Service
	Register     auth.RegisterService
	Customers    customers.Service
	Catalog      catalog.Service
	Products     products.Service
	Companies    companies.Service
	Cart         cartsvc.Service
	Checkout     checkoutsvc.Service
	Orders       ordersvc.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
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
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(d.DB, d.Redis, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.Redis, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Register, d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, logg))
	})

	// Storefront browse pages need no account.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(d.Products, logg))
		r.Get("/products/{productID}", controllers.ProductGet(d.Products, logg))
		r.Get("/categories", controllers.CategoryList(d.Catalog, logg))
		r.Get("/cover-types", controllers.CoverTypeList(d.Catalog, logg))

		// The hosted payment page redirects the buyer here without a
		// bearer token; the gateway session carries the truth.
		r.Get("/checkout/confirm", controllers.CheckoutConfirm(d.Checkout, logg))
	})

	r.Route("/api/v1/me", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Get("/", controllers.MeGet(d.Customers, logg))
		r.Put("/", controllers.MeUpdate(d.Customers, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Get("/", controllers.CartGet(d.Cart, logg))
		r.Get("/badge", controllers.CartBadge(d.Cart, logg))
		r.Post("/items", controllers.CartAdd(d.Cart, logg))
		r.Post("/items/{itemID}/increment", controllers.CartIncrement(d.Cart, logg))
		r.Post("/items/{itemID}/decrement", controllers.CartDecrement(d.Cart, logg))
		r.Delete("/items/{itemID}", controllers.CartRemove(d.Cart, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))
		r.Post("/api/v1/checkout", controllers.CheckoutCreate(d.Checkout, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Get("/", controllers.OrderList(d.Orders, logg))
		r.Get("/{orderID}", controllers.OrderGet(d.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireStaff(logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(d.Products, logg))
			r.Post("/", controllers.AdminProductCreate(d.Products, logg))
			r.Get("/{productID}", controllers.AdminProductGet(d.Products, logg))
			r.Put("/{productID}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/{productID}", controllers.AdminProductDelete(d.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(d.Catalog, logg))
			r.Put("/{categoryID}", controllers.AdminCategoryUpdate(d.Catalog, logg))
			r.Delete("/{categoryID}", controllers.AdminCategoryDelete(d.Catalog, logg))
		})

		r.Route("/cover-types", func(r chi.Router) {
			r.Post("/", controllers.AdminCoverTypeCreate(d.Catalog, logg))
			r.Put("/{coverTypeID}", controllers.AdminCoverTypeUpdate(d.Catalog, logg))
			r.Delete("/{coverTypeID}", controllers.AdminCoverTypeDelete(d.Catalog, logg))
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", controllers.AdminCompanyList(d.Companies, logg))
			r.Post("/", controllers.AdminCompanyCreate(d.Companies, logg))
			r.Get("/{companyID}", controllers.AdminCompanyGet(d.Companies, logg))
			r.Put("/{companyID}", controllers.AdminCompanyUpdate(d.Companies, logg))
			r.Delete("/{companyID}", controllers.AdminCompanyDelete(d.Companies, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.Orders, logg))
			r.Get("/{orderID}", controllers.AdminOrderGet(d.Orders, logg))
			r.Post("/{orderID}/process", controllers.AdminOrderProcess(d.Orders, logg))
			r.Post("/{orderID}/ship", controllers.AdminOrderShip(d.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.AdminOrderCancel(d.Orders, logg))
			r.Post("/{orderID}/pay", controllers.AdminOrderPayNow(d.Orders, logg))
			r.Put("/{orderID}/details", controllers.AdminOrderUpdateDetails(d.Orders, logg))
		})
	})

	return r
}
