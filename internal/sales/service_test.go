package sales

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/internal/customers"
	"github.com/karthikraju/granary-backend/internal/inventory"
	"github.com/karthikraju/granary-backend/internal/notifications"
	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubSettings struct {
	settings models.Settings
}

func (s *stubSettings) Get(ctx context.Context) (*models.Settings, error) {
	copied := s.settings
	return &copied, nil
}

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_person TEXT,
  phone TEXT,
  email TEXT,
  address TEXT,
  gstin TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  code_prefix TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE brands (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE units (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  abbreviation TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category_id TEXT NOT NULL,
  brand_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  cost_price TEXT NOT NULL,
  selling_price TEXT NOT NULL,
  gst_rate TEXT NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
  min_stock_qty INTEGER NOT NULL DEFAULT 0,
  batch_number TEXT,
  expiry_date DATETIME,
  warehouse_location TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE sales_orders (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  order_date DATETIME NOT NULL,
  status TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  gst_total TEXT NOT NULL,
  discount TEXT NOT NULL,
  total TEXT NOT NULL,
  notes TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE sales_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty > 0),
  unit_price TEXT NOT NULL,
  gst_rate TEXT NOT NULL,
  gst_amount TEXT NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE stock_transactions (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty > 0),
  direction TEXT NOT NULL,
  reference TEXT NOT NULL,
  order_id TEXT,
  note TEXT,
  actor_id TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  product_id TEXT,
  order_id TEXT,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE number_sequences (
  scope TEXT PRIMARY KEY,
  next INTEGER NOT NULL DEFAULT 0
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type salesFixture struct {
	db       *gorm.DB
	svc      Service
	stock    inventory.Repository
	customer models.Customer
	actor    uuid.UUID
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()

	db := setupSalesTestDB(t)

	customer := models.Customer{ID: uuid.New(), Name: "Daily Needs Mart", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(db),
		Tx:        gormTxRunner{db: db},
		Stock:     inventory.NewRepository(db),
		Customers: customers.NewRepository(db),
		Settings: &stubSettings{settings: models.Settings{
			ID:             models.SettingsRowID,
			DefaultGSTRate: decimal.NewFromInt(5),
			LowStockAlerts: true,
		}},
		Notifications: notifications.NewRepository(db),
	})
	require.NoError(t, err)

	return &salesFixture{
		db:       db,
		svc:      svc,
		stock:    inventory.NewRepository(db),
		customer: customer,
		actor:    uuid.New(),
	}
}

func (f *salesFixture) seedProduct(t *testing.T, code string, price, gstRate decimal.Decimal, stock, minStock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:           uuid.New(),
		Code:         code,
		Name:         "Product " + code,
		CategoryID:   uuid.New(),
		BrandID:      uuid.New(),
		UnitID:       uuid.New(),
		CostPrice:    price.Div(decimal.NewFromInt(2)),
		SellingPrice: price,
		GSTRate:      gstRate,
		StockQty:     stock,
		MinStockQty:  minStock,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product
}

// Five units at 100.00 with 18% GST comes to 590.00.
func TestCreateSalesOrderPricing(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.NewFromInt(18), 20, 0)

	order, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 5}},
		ActorID:    f.actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "SO-00001", order.Number)
	assert.Equal(t, "Daily Needs Mart", order.CustomerName)
	assert.Equal(t, "500.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "90.00", order.GSTTotal.StringFixed(2))
	assert.Equal(t, "590.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "100.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "590.00", order.Items[0].LineTotal.StringFixed(2))

	qty, err := f.stock.StockQty(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, qty)

	count, err := f.stock.CountStockTransactionsByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var alerts []models.Notification
	require.NoError(t, f.db.Where("kind = ?", enums.NotificationSaleCreated).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].OrderID)
	assert.Equal(t, order.ID, *alerts[0].OrderID)
}

func TestCreateSalesOrderDiscountClampedAtZero(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(10), decimal.Zero, 10, 0)

	order, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
		Discount:   decimal.NewFromInt(50),
		ActorID:    f.actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", order.Total.StringFixed(2))
}

func TestCreateSalesOrderLastUnit(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 1, 0)

	_, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
		ActorID:    f.actor,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
		ActorID:    f.actor,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Contains(t, typed.Message(), "RAW-0001")
	assert.Contains(t, typed.Message(), "available 0")

	var headers int64
	require.NoError(t, f.db.Model(&models.SalesOrder{}).Count(&headers).Error)
	assert.Equal(t, int64(1), headers)
}

func TestCreateSalesOrderConcurrentLastUnit(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 1, 0)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, CreateSalesOrderInput{
				CustomerID: f.customer.ID,
				Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
				ActorID:    f.actor,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected error: %v", err)
		require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		details, ok := typed.Details().(map[string]any)
		require.True(t, ok)
		assert.GreaterOrEqual(t, details["shortfall"].(int), 0)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	qty, err := f.stock.StockQty(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, qty)

	var headers int64
	require.NoError(t, f.db.Model(&models.SalesOrder{}).Count(&headers).Error)
	assert.Equal(t, int64(1), headers)
}

// replenishedStock reports a restocked quantity on re-read, as if another
// transaction added stock between the failed decrement and the count.
type replenishedStock struct {
	inventory.Repository
	onHand int
}

func (s replenishedStock) WithTx(tx *gorm.DB) inventory.Repository {
	return replenishedStock{Repository: s.Repository.WithTx(tx), onHand: s.onHand}
}

func (s replenishedStock) StockQty(ctx context.Context, productID uuid.UUID) (int, error) {
	return s.onHand, nil
}

func TestCreateSalesOrderShortfallNeverNegative(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 1, 0)

	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(f.db),
		Tx:        gormTxRunner{db: f.db},
		Stock:     replenishedStock{Repository: inventory.NewRepository(f.db), onHand: 7},
		Customers: customers.NewRepository(f.db),
		Settings: &stubSettings{settings: models.Settings{
			ID:             models.SettingsRowID,
			DefaultGSTRate: decimal.NewFromInt(5),
		}},
		Notifications: notifications.NewRepository(f.db),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 2}},
		ActorID:    f.actor,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 7, details["available"])
	assert.Equal(t, 0, details["shortfall"])
}

func TestCreateSalesOrderRollsBack(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	first := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 10, 0)
	second := f.seedProduct(t, "RAW-0002", decimal.NewFromInt(100), decimal.Zero, 2, 0)

	// Second line overdraws; the first line's decrement must roll back.
	_, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines: []SalesLineInput{
			{ProductID: first.ID, Qty: 5},
			{ProductID: second.ID, Qty: 3},
		},
		ActorID: f.actor,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	qty, err := f.stock.StockQty(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)

	var headers int64
	require.NoError(t, f.db.Model(&models.SalesOrder{}).Count(&headers).Error)
	assert.Zero(t, headers)
}

func TestCreateSalesOrderLowStockAlert(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 10, 8)

	_, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 4}},
		ActorID:    f.actor,
	})
	require.NoError(t, err)

	var alerts []models.Notification
	require.NoError(t, f.db.Where("kind = ?", enums.NotificationLowStock).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].ProductID)
	assert.Equal(t, product.ID, *alerts[0].ProductID)

	// Already below the minimum: no further alert.
	_, err = f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
		ActorID:    f.actor,
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Where("kind = ?", enums.NotificationLowStock).Find(&alerts).Error)
	assert.Len(t, alerts, 1)
}

func TestCreateSalesOrderValidation(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "RAW-0001", decimal.NewFromInt(100), decimal.Zero, 10, 0)

	_, err := f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: uuid.New(),
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 1}},
		ActorID:    f.actor,
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}

	_, err = f.svc.Create(ctx, CreateSalesOrderInput{
		CustomerID: f.customer.ID,
		Lines:      []SalesLineInput{{ProductID: product.ID, Qty: 0}},
		ActorID:    f.actor,
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
