package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/internal/catalog"
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

func newTestService(t *testing.T, db *gorm.DB, settings *stubSettings) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(db),
		Tx:            gormTxRunner{db: db},
		Lookups:       catalog.NewRepository(db),
		Settings:      settings,
		Notifications: notifications.NewRepository(db),
	})
	require.NoError(t, err)
	return svc
}

func defaultTestSettings() *stubSettings {
	return &stubSettings{settings: models.Settings{
		ID:             models.SettingsRowID,
		CompanyName:    "Granary Foods",
		DefaultGSTRate: decimal.NewFromInt(5),
		LowStockAlerts: true,
	}}
}

func TestCreateProductGeneratesSequentialCodes(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Turmeric Powder",
		CategoryID:   category.ID,
		BrandID:      brand.ID,
		UnitID:       unit.ID,
		CostPrice:    decimal.NewFromInt(80),
		SellingPrice: decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	assert.Equal(t, "RAW-0001", first.Code)
	assert.Equal(t, "Raw Spices", first.CategoryName)
	assert.True(t, first.GSTRate.Equal(decimal.NewFromInt(5)), "gst defaults from settings")
	assert.True(t, first.IsActive)
	assert.Zero(t, first.StockQty)

	rate := decimal.NewFromInt(18)
	second, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Chilli Powder",
		CategoryID:   category.ID,
		BrandID:      brand.ID,
		UnitID:       unit.ID,
		CostPrice:    decimal.NewFromInt(90),
		SellingPrice: decimal.NewFromInt(140),
		GSTRate:      &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, "RAW-0002", second.Code)
	assert.True(t, second.GSTRate.Equal(rate))
}

func TestCreateProductValidation(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		BrandID:    brand.ID,
		UnitID:     unit.ID,
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Orphaned",
		CategoryID: uuid.New(),
		BrandID:    brand.ID,
		UnitID:     unit.ID,
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()
	actor := uuid.New()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 0, 5, time.Now().UTC())

	adjusted, err := svc.AdjustStock(ctx, AdjustStockInput{
		ProductID: product.ID,
		Qty:       20,
		Note:      "opening stock",
		ActorID:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, adjusted.StockQty)

	ledger, err := svc.Ledger(ctx, LedgerParams{Limit: 10, ProductID: &product.ID})
	require.NoError(t, err)
	require.Len(t, ledger.Items, 1)
	assert.Equal(t, enums.StockDirectionInbound, ledger.Items[0].Direction)
	assert.Equal(t, enums.StockReferenceAdjustment, ledger.Items[0].Reference)
	assert.Equal(t, 20, ledger.Items[0].Qty)
	require.NotNil(t, ledger.Items[0].Note)
	assert.Equal(t, "opening stock", *ledger.Items[0].Note)
	assert.Nil(t, ledger.Items[0].OrderID)

	adjusted, err = svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: -4, ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, 16, adjusted.StockQty)
}

func TestAdjustStockInsufficient(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 3, 0, time.Now().UTC())

	_, err := svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: -5, ActorID: uuid.New()})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// The whole adjustment rolled back: no ledger row, stock untouched.
	qty, err := repo.StockQty(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	count, err := repo.CountStockTransactionsByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAdjustStockLowStockAlert(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	settings := defaultTestSettings()
	svc := newTestService(t, db, settings)
	ctx := context.Background()
	actor := uuid.New()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 10, 8, time.Now().UTC())

	// 10 -> 6 crosses below the minimum of 8: one alert.
	_, err := svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: -4, ActorID: actor})
	require.NoError(t, err)

	var alerts []models.Notification
	require.NoError(t, db.Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, enums.NotificationLowStock, alerts[0].Kind)
	require.NotNil(t, alerts[0].ProductID)
	assert.Equal(t, product.ID, *alerts[0].ProductID)

	// Already below the minimum: no second alert for a further drop.
	_, err = svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: -1, ActorID: actor})
	require.NoError(t, err)
	require.NoError(t, db.Find(&alerts).Error)
	assert.Len(t, alerts, 1)
}

func TestAdjustStockAlertsDisabled(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	settings := defaultTestSettings()
	settings.settings.LowStockAlerts = false
	svc := newTestService(t, db, settings)
	ctx := context.Background()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 10, 8, time.Now().UTC())

	_, err := svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: -4, ActorID: uuid.New()})
	require.NoError(t, err)

	var alerts []models.Notification
	require.NoError(t, db.Find(&alerts).Error)
	assert.Empty(t, alerts)
}

func TestDeleteProductBlockedByMovements(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 0, 0, time.Now().UTC())

	_, err := svc.AdjustStock(ctx, AdjustStockInput{ProductID: product.ID, Qty: 5, ActorID: uuid.New()})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, product.ID)
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	fresh := seedProduct(t, repo, category, brand, unit, "RAW-0002", 0, 0, time.Now().UTC())
	require.NoError(t, svc.DeleteProduct(ctx, fresh.ID))

	err = svc.DeleteProduct(ctx, uuid.New())
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	db := setupInventoryTestDB(t)
	category, brand, unit := seedLookups(t, db)
	repo := NewRepository(db)
	svc := newTestService(t, db, defaultTestSettings())
	ctx := context.Background()

	product := seedProduct(t, repo, category, brand, unit, "RAW-0001", 0, 0, time.Now().UTC())

	name := "Turmeric Powder 500g"
	price := decimal.NewFromInt(150)
	inactive := false
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Name:         &name,
		SellingPrice: &price,
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.SellingPrice.Equal(price))
	assert.False(t, updated.IsActive)
	assert.Equal(t, "RAW-0001", updated.Code, "code never changes")

	bad := decimal.NewFromInt(-1)
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{SellingPrice: &bad})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: &name})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
