package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/api/middleware"
	"github.com/karthikraju/granary-backend/internal/inventory"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

type stubInventoryService struct {
	product    *inventory.ProductDTO
	page       *inventory.ProductPage
	ledger     *inventory.LedgerPage
	err        error
	lastAdjust inventory.AdjustStockInput
	lastList   inventory.ProductListParams
}

func (s *stubInventoryService) CreateProduct(_ context.Context, _ inventory.CreateProductInput) (*inventory.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubInventoryService) UpdateProduct(_ context.Context, _ uuid.UUID, _ inventory.UpdateProductInput) (*inventory.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubInventoryService) GetProduct(_ context.Context, _ uuid.UUID) (*inventory.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubInventoryService) ListProducts(_ context.Context, params inventory.ProductListParams) (*inventory.ProductPage, error) {
	s.lastList = params
	return s.page, s.err
}

func (s *stubInventoryService) DeleteProduct(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func (s *stubInventoryService) ListLowStock(_ context.Context) ([]inventory.ProductDTO, error) {
	return nil, s.err
}

func (s *stubInventoryService) AdjustStock(_ context.Context, input inventory.AdjustStockInput) (*inventory.ProductDTO, error) {
	s.lastAdjust = input
	return s.product, s.err
}

func (s *stubInventoryService) Ledger(_ context.Context, _ inventory.LedgerParams) (*inventory.LedgerPage, error) {
	return s.ledger, s.err
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateProductHandler(t *testing.T) {
	logg := testLogger()

	t.Run("success", func(t *testing.T) {
		stub := &stubInventoryService{product: &inventory.ProductDTO{ID: uuid.New(), Code: "RAW-0001"}}
		body := `{"name":"Turmeric Powder","category_id":"` + uuid.NewString() + `","brand_id":"` + uuid.NewString() + `","unit_id":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "RAW-0001") {
			t.Fatalf("expected generated code in body, got %s", rec.Body.String())
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":""}`))
		rec := httptest.NewRecorder()
		CreateProduct(&stubInventoryService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown json field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"x","stock_qty":99}`))
		rec := httptest.NewRecorder()
		CreateProduct(&stubInventoryService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
		}
	})
}

func TestGetProductHandler(t *testing.T) {
	logg := testLogger()

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
		req = withRouteParam(req, "productID", "not-a-uuid")
		rec := httptest.NewRecorder()
		GetProduct(&stubInventoryService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubInventoryService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil)
		req = withRouteParam(req, "productID", id)
		rec := httptest.NewRecorder()
		GetProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestListProductsHandlerParsesFilters(t *testing.T) {
	logg := testLogger()
	stub := &stubInventoryService{page: &inventory.ProductPage{}}
	categoryID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=5&category_id="+categoryID+"&low_stock=true&search=chili", nil)
	rec := httptest.NewRecorder()
	ListProducts(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastList.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.lastList.Limit)
	}
	if stub.lastList.CategoryID == nil || stub.lastList.CategoryID.String() != categoryID {
		t.Fatalf("expected category filter %s, got %v", categoryID, stub.lastList.CategoryID)
	}
	if !stub.lastList.LowStock || stub.lastList.Search != "chili" {
		t.Fatalf("unexpected list params: %+v", stub.lastList)
	}
}

func TestAdjustStockHandler(t *testing.T) {
	logg := testLogger()
	actor := uuid.New()
	productID := uuid.New()

	t.Run("missing identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/adjust", strings.NewReader(`{"product_id":"`+productID.String()+`","qty":-2}`))
		rec := httptest.NewRecorder()
		AdjustStock(&stubInventoryService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("insufficient stock", func(t *testing.T) {
		stub := &stubInventoryService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for RAW-0001")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/adjust", strings.NewReader(`{"product_id":"`+productID.String()+`","qty":-2}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), actor.String()))
		rec := httptest.NewRecorder()
		AdjustStock(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "RAW-0001") {
			t.Fatalf("expected product code in message, got %s", rec.Body.String())
		}
	})

	t.Run("seeds actor", func(t *testing.T) {
		stub := &stubInventoryService{product: &inventory.ProductDTO{ID: productID}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/adjust", strings.NewReader(`{"product_id":"`+productID.String()+`","qty":4,"note":"cycle count"}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), actor.String()))
		rec := httptest.NewRecorder()
		AdjustStock(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastAdjust.ActorID != actor {
			t.Fatalf("expected actor %s, got %s", actor, stub.lastAdjust.ActorID)
		}
	})
}
