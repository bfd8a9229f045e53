package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/api/controllers"
	"github.com/karthikraju/granary-backend/api/middleware"
	"github.com/karthikraju/granary-backend/internal/auth"
	"github.com/karthikraju/granary-backend/internal/catalog"
	"github.com/karthikraju/granary-backend/internal/customers"
	"github.com/karthikraju/granary-backend/internal/inventory"
	"github.com/karthikraju/granary-backend/internal/notifications"
	"github.com/karthikraju/granary-backend/internal/purchasing"
	"github.com/karthikraju/granary-backend/internal/reports"
	"github.com/karthikraju/granary-backend/internal/sales"
	"github.com/karthikraju/granary-backend/internal/settings"
	"github.com/karthikraju/granary-backend/internal/suppliers"
	"github.com/karthikraju/granary-backend/internal/users"
	"github.com/karthikraju/granary-backend/pkg/auth/session"
	"github.com/karthikraju/granary-backend/pkg/config"
	"github.com/karthikraju/granary-backend/pkg/logger"
	"github.com/karthikraju/granary-backend/pkg/metrics"
	"github.com/karthikraju/granary-backend/pkg/rbac"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Catalog       catalog.Service
	Inventory     inventory.Service
	Suppliers     suppliers.Service
	Customers     customers.Service
	Purchasing    purchasing.Service
	Sales         sales.Service
	Reports       reports.Service
	Settings      settings.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db *gorm.DB,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, db, logg))
	})
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.Logout(svcs.Auth, logg))
			r.Get("/me", controllers.Profile(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.ProductRead, logg)).Get("/", controllers.ListProducts(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.ProductRead, logg)).Get("/low-stock", controllers.ListLowStockProducts(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.ProductRead, logg)).Get("/{productID}", controllers.GetProduct(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.ProductCreate, logg)).Post("/", controllers.CreateProduct(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.ProductUpdate, logg)).Patch("/{productID}", controllers.UpdateProduct(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.ProductDelete, logg)).Delete("/{productID}", controllers.DeleteProduct(svcs.Inventory, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.StockAdjust, logg)).Post("/adjust", controllers.AdjustStock(svcs.Inventory, logg))
			r.With(middleware.RequirePermission(rbac.StockRead, logg)).Get("/ledger", controllers.StockLedger(svcs.Inventory, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.CatalogRead, logg)).Get("/", controllers.ListCategories(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Post("/", controllers.CreateCategory(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Patch("/{categoryID}", controllers.UpdateCategory(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Delete("/{categoryID}", controllers.DeleteCategory(svcs.Catalog, logg))
		})
		r.Route("/brands", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.CatalogRead, logg)).Get("/", controllers.ListBrands(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Post("/", controllers.CreateBrand(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Delete("/{brandID}", controllers.DeleteBrand(svcs.Catalog, logg))
		})
		r.Route("/units", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.CatalogRead, logg)).Get("/", controllers.ListUnits(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Post("/", controllers.CreateUnit(svcs.Catalog, logg))
			r.With(middleware.RequirePermission(rbac.CatalogManage, logg)).Delete("/{unitID}", controllers.DeleteUnit(svcs.Catalog, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.SupplierRead, logg)).Get("/", controllers.ListSuppliers(svcs.Suppliers, logg))
			r.With(middleware.RequirePermission(rbac.SupplierRead, logg)).Get("/{supplierID}", controllers.GetSupplier(svcs.Suppliers, logg))
			r.With(middleware.RequirePermission(rbac.SupplierManage, logg)).Post("/", controllers.CreateSupplier(svcs.Suppliers, logg))
			r.With(middleware.RequirePermission(rbac.SupplierManage, logg)).Patch("/{supplierID}", controllers.UpdateSupplier(svcs.Suppliers, logg))
			r.With(middleware.RequirePermission(rbac.SupplierManage, logg)).Delete("/{supplierID}", controllers.DeleteSupplier(svcs.Suppliers, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.CustomerRead, logg)).Get("/", controllers.ListCustomers(svcs.Customers, logg))
			r.With(middleware.RequirePermission(rbac.CustomerRead, logg)).Get("/{customerID}", controllers.GetCustomer(svcs.Customers, logg))
			r.With(middleware.RequirePermission(rbac.CustomerManage, logg)).Post("/", controllers.CreateCustomer(svcs.Customers, logg))
			r.With(middleware.RequirePermission(rbac.CustomerManage, logg)).Patch("/{customerID}", controllers.UpdateCustomer(svcs.Customers, logg))
			r.With(middleware.RequirePermission(rbac.CustomerManage, logg)).Delete("/{customerID}", controllers.DeleteCustomer(svcs.Customers, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.PurchaseRead, logg)).Get("/", controllers.ListPurchaseOrders(svcs.Purchasing, logg))
			r.With(middleware.RequirePermission(rbac.PurchaseRead, logg)).Get("/{orderID}", controllers.GetPurchaseOrder(svcs.Purchasing, logg))
			r.With(middleware.RequirePermission(rbac.PurchaseCreate, logg)).Post("/", controllers.CreatePurchaseOrder(svcs.Purchasing, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.SaleRead, logg)).Get("/", controllers.ListSalesOrders(svcs.Sales, logg))
			r.With(middleware.RequirePermission(rbac.SaleRead, logg)).Get("/{orderID}", controllers.GetSalesOrder(svcs.Sales, logg))
			r.With(middleware.RequirePermission(rbac.SaleCreate, logg)).Post("/", controllers.CreateSalesOrder(svcs.Sales, logg))
		})

		r.With(middleware.RequirePermission(rbac.ReportView, logg)).Get("/reports", controllers.Report(svcs.Reports, logg))

		r.Route("/settings", func(r chi.Router) {
			r.With(middleware.RequirePermission(rbac.SettingsRead, logg)).Get("/", controllers.GetSettings(svcs.Settings, logg))
			r.With(middleware.RequirePermission(rbac.SettingsUpdate, logg)).Put("/", controllers.UpdateSettings(svcs.Settings, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequirePermission(rbac.UserManage, logg))
			r.Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Get("/{userID}", controllers.GetUser(svcs.Users, logg))
			r.Patch("/{userID}", controllers.UpdateUser(svcs.Users, logg))
			r.Delete("/{userID}", controllers.DeactivateUser(svcs.Users, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
