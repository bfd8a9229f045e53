package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

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
	pkgAuth "github.com/karthikraju/granary-backend/pkg/auth"
	"github.com/karthikraju/granary-backend/pkg/auth/session"
	"github.com/karthikraju/granary-backend/pkg/config"
	"github.com/karthikraju/granary-backend/pkg/enums"
	"github.com/karthikraju/granary-backend/pkg/logger"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "stub"}, nil
}
func (stubAuthService) Logout(context.Context, string) error { return nil }
func (stubAuthService) Profile(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubUsersService struct{}

func (stubUsersService) Create(context.Context, enums.Role, users.CreateUserInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) Update(context.Context, enums.Role, uuid.UUID, users.UpdateUserInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) Get(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) List(context.Context) ([]users.UserDTO, error) { return nil, nil }
func (stubUsersService) Deactivate(context.Context, enums.Role, uuid.UUID) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) CreateCategory(context.Context, string, string) (*catalog.CategoryDTO, error) {
	return &catalog.CategoryDTO{}, nil
}
func (stubCatalogService) UpdateCategory(context.Context, uuid.UUID, *string, *string) (*catalog.CategoryDTO, error) {
	return &catalog.CategoryDTO{}, nil
}
func (stubCatalogService) ListCategories(context.Context) ([]catalog.CategoryDTO, error) {
	return nil, nil
}
func (stubCatalogService) DeleteCategory(context.Context, uuid.UUID) error { return nil }
func (stubCatalogService) CreateBrand(context.Context, string) (*catalog.BrandDTO, error) {
	return &catalog.BrandDTO{}, nil
}
func (stubCatalogService) ListBrands(context.Context) ([]catalog.BrandDTO, error) { return nil, nil }
func (stubCatalogService) DeleteBrand(context.Context, uuid.UUID) error           { return nil }
func (stubCatalogService) CreateUnit(context.Context, string, string) (*catalog.UnitDTO, error) {
	return &catalog.UnitDTO{}, nil
}
func (stubCatalogService) ListUnits(context.Context) ([]catalog.UnitDTO, error) { return nil, nil }
func (stubCatalogService) DeleteUnit(context.Context, uuid.UUID) error          { return nil }

type stubInventoryService struct{}

func (stubInventoryService) CreateProduct(context.Context, inventory.CreateProductInput) (*inventory.ProductDTO, error) {
	return &inventory.ProductDTO{}, nil
}
func (stubInventoryService) UpdateProduct(context.Context, uuid.UUID, inventory.UpdateProductInput) (*inventory.ProductDTO, error) {
	return &inventory.ProductDTO{}, nil
}
func (stubInventoryService) GetProduct(context.Context, uuid.UUID) (*inventory.ProductDTO, error) {
	return &inventory.ProductDTO{}, nil
}
func (stubInventoryService) ListProducts(context.Context, inventory.ProductListParams) (*inventory.ProductPage, error) {
	return &inventory.ProductPage{}, nil
}
func (stubInventoryService) DeleteProduct(context.Context, uuid.UUID) error { return nil }
func (stubInventoryService) ListLowStock(context.Context) ([]inventory.ProductDTO, error) {
	return nil, nil
}
func (stubInventoryService) AdjustStock(context.Context, inventory.AdjustStockInput) (*inventory.ProductDTO, error) {
	return &inventory.ProductDTO{}, nil
}
func (stubInventoryService) Ledger(context.Context, inventory.LedgerParams) (*inventory.LedgerPage, error) {
	return &inventory.LedgerPage{}, nil
}

type stubSuppliersService struct{}

func (stubSuppliersService) Create(context.Context, suppliers.UpsertSupplierInput) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{}, nil
}
func (stubSuppliersService) Update(context.Context, uuid.UUID, suppliers.UpsertSupplierInput) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{}, nil
}
func (stubSuppliersService) Get(context.Context, uuid.UUID) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{}, nil
}
func (stubSuppliersService) List(context.Context, bool) ([]suppliers.SupplierDTO, error) {
	return nil, nil
}
func (stubSuppliersService) Delete(context.Context, uuid.UUID) error { return nil }

type stubCustomersService struct{}

func (stubCustomersService) Create(context.Context, customers.UpsertCustomerInput) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{}, nil
}
func (stubCustomersService) Update(context.Context, uuid.UUID, customers.UpsertCustomerInput) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{}, nil
}
func (stubCustomersService) Get(context.Context, uuid.UUID) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{}, nil
}
func (stubCustomersService) List(context.Context, bool) ([]customers.CustomerDTO, error) {
	return nil, nil
}
func (stubCustomersService) Delete(context.Context, uuid.UUID) error { return nil }

type stubPurchasingService struct{}

func (stubPurchasingService) Create(context.Context, purchasing.CreatePurchaseOrderInput) (*purchasing.PurchaseOrderDTO, error) {
	return &purchasing.PurchaseOrderDTO{}, nil
}
func (stubPurchasingService) Get(context.Context, uuid.UUID) (*purchasing.PurchaseOrderDTO, error) {
	return &purchasing.PurchaseOrderDTO{}, nil
}
func (stubPurchasingService) List(context.Context, purchasing.ListParams) (*purchasing.Page, error) {
	return &purchasing.Page{}, nil
}

type stubSalesService struct{}

func (stubSalesService) Create(context.Context, sales.CreateSalesOrderInput) (*sales.SalesOrderDTO, error) {
	return &sales.SalesOrderDTO{}, nil
}
func (stubSalesService) Get(context.Context, uuid.UUID) (*sales.SalesOrderDTO, error) {
	return &sales.SalesOrderDTO{}, nil
}
func (stubSalesService) List(context.Context, sales.ListParams) (*sales.Page, error) {
	return &sales.Page{}, nil
}

type stubReportsService struct{}

func (stubReportsService) Inventory(context.Context, reports.InventoryParams) ([]reports.InventoryRow, error) {
	return nil, nil
}
func (stubReportsService) Sales(context.Context, reports.RangeParams) ([]reports.SalesRow, error) {
	return nil, nil
}
func (stubReportsService) Purchases(context.Context, reports.RangeParams) ([]reports.PurchaseRow, error) {
	return nil, nil
}
func (stubReportsService) RenderCSV(any) ([]byte, error) {
	return []byte("code,name\n"), nil
}

type stubSettingsService struct{}

func (stubSettingsService) Get(context.Context) (*settings.SettingsDTO, error) {
	return &settings.SettingsDTO{}, nil
}
func (stubSettingsService) Update(context.Context, settings.UpdateSettingsInput) (*settings.SettingsDTO, error) {
	return &settings.SettingsDTO{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, int, string, bool) (*notifications.FeedPage, error) {
	return &notifications.FeedPage{}, nil
}
func (stubNotificationsService) MarkRead(context.Context, uuid.UUID) error { return nil }
func (stubNotificationsService) MarkAllRead(context.Context) (int64, error) {
	return 0, nil
}
func (stubNotificationsService) UnreadCount(context.Context) (int64, error) { return 0, nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:         "test",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{
			Secret:            "test-secret-test-secret-test-secret",
			Issuer:            "granary-test",
			ExpirationMinutes: 15,
			SessionTTLMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, nil, stubSessionChecker{}, nil, nil, Services{
		Auth:          stubAuthService{},
		Users:         stubUsersService{},
		Catalog:       stubCatalogService{},
		Inventory:     stubInventoryService{},
		Suppliers:     stubSuppliersService{},
		Customers:     stubCustomersService{},
		Purchasing:    stubPurchasingService{},
		Sales:         stubSalesService{},
		Reports:       stubReportsService{},
		Settings:      stubSettingsService{},
		Notifications: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestLiveEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Granary-Env"); got != "test" {
		t.Fatalf("expected env header test, got %q", got)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProductReadAllowedForAllRoles(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	for _, role := range []enums.Role{enums.RoleSuperAdmin, enums.RoleAdmin, enums.RoleManager, enums.RoleStoreUser} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("role %s: expected 200 got %d", role, resp.Code)
		}
	}
}

func TestProductWriteForbiddenForStoreUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"name":"Turmeric","category_id":"` + uuid.NewString() + `","brand_id":"` + uuid.NewString() + `","unit_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStoreUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for store user got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for manager got %d", resp.Code)
	}
}

func TestStoreUserCanCreateSale(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"customer_id":"` + uuid.NewString() + `","lines":[{"product_id":"` + uuid.NewString() + `","qty":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStoreUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSettingsUpdateRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleManager))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestReportExportForbiddenForStoreUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?kind=inventory&format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStoreUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports?kind=inventory&format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
}
