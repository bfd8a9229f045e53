package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
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
  stock_qty INTEGER NOT NULL DEFAULT 0,
  min_stock_qty INTEGER NOT NULL DEFAULT 0,
  batch_number TEXT,
  expiry_date DATETIME,
  warehouse_location TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
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
		`CREATE TABLE suppliers (
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
  qty INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  gst_rate TEXT NOT NULL,
  gst_amount TEXT NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE purchase_orders (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  supplier_id TEXT NOT NULL,
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
		`CREATE TABLE purchase_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_cost TEXT NOT NULL,
  gst_rate TEXT NOT NULL,
  gst_amount TEXT NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func TestInventoryReport(t *testing.T) {
	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	category := models.Category{ID: uuid.New(), Name: "Raw Spices", CodePrefix: "RAW"}
	other := models.Category{ID: uuid.New(), Name: "Packaging", CodePrefix: "PAC"}
	brand := models.Brand{ID: uuid.New(), Name: "Granary House"}
	unit := models.Unit{ID: uuid.New(), Name: "Kilogram", Abbreviation: "kg"}
	require.NoError(t, db.Create(&category).Error)
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&brand).Error)
	require.NoError(t, db.Create(&unit).Error)

	for _, p := range []models.Product{
		{ID: uuid.New(), Code: "RAW-0001", Name: "Turmeric", CategoryID: category.ID, BrandID: brand.ID, UnitID: unit.ID,
			CostPrice: decimal.NewFromInt(50), SellingPrice: decimal.NewFromInt(80), GSTRate: decimal.NewFromInt(5),
			StockQty: 10, MinStockQty: 4, IsActive: true},
		{ID: uuid.New(), Code: "RAW-0002", Name: "Chilli", CategoryID: category.ID, BrandID: brand.ID, UnitID: unit.ID,
			CostPrice: decimal.NewFromInt(60), SellingPrice: decimal.NewFromInt(90), GSTRate: decimal.NewFromInt(5),
			StockQty: 2, MinStockQty: 4, IsActive: true},
		{ID: uuid.New(), Code: "PAC-0001", Name: "Pouches", CategoryID: other.ID, BrandID: brand.ID, UnitID: unit.ID,
			CostPrice: decimal.NewFromInt(2), SellingPrice: decimal.NewFromInt(3), GSTRate: decimal.NewFromInt(12),
			StockQty: 500, MinStockQty: 100, IsActive: true},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	rows, err := svc.Inventory(ctx, InventoryParams{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "PAC-0001", rows[0].Code)
	assert.Equal(t, "Packaging", rows[0].Category)
	assert.Equal(t, "500.00", rows[1].StockValue, "10 units at cost 50")

	rows, err = svc.Inventory(ctx, InventoryParams{CategoryID: &category.ID, LowStock: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "RAW-0002", rows[0].Code)
	assert.True(t, rows[0].LowStock)

	out, err := svc.RenderCSV(rows)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "code,name,category"))
	assert.Contains(t, lines[1], "RAW-0002")
}

func TestSalesReportRange(t *testing.T) {
	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	customer := models.Customer{ID: uuid.New(), Name: "Daily Needs Mart", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	actor := uuid.New()
	for i, date := range []time.Time{
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	} {
		order := models.SalesOrder{
			ID:         uuid.New(),
			Number:     "SO-0000" + string(rune('1'+i)),
			CustomerID: customer.ID,
			OrderDate:  date,
			Status:     enums.OrderStatusCompleted,
			Subtotal:   decimal.NewFromInt(500),
			GSTTotal:   decimal.NewFromInt(90),
			Discount:   decimal.Zero,
			Total:      decimal.NewFromInt(590),
			CreatedBy:  actor,
		}
		require.NoError(t, db.Create(&order).Error)
	}

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	rows, err := svc.Sales(ctx, RangeParams{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SO-00002", rows[0].Number)
	assert.Equal(t, "590.00", rows[0].Total)
	assert.Equal(t, "2026-05-10", rows[0].OrderDate)
	assert.Equal(t, "Daily Needs Mart", rows[0].Customer)
}

func TestEmptyReportRendersHeaderOnly(t *testing.T) {
	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := svc.Purchases(ctx, RangeParams{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	out, err := svc.RenderCSV(rows)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "number,order_date,supplier"))
}
