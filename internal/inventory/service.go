package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/internal/notifications"
	dbpkg "github.com/karthikraju/granary-backend/pkg/db"
	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/pagination"
)

const fallbackCodePrefix = "PRD"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lookupRepository interface {
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBrandByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	FindUnitByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Service exposes product and stock management.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params ProductListParams) (*ProductPage, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]ProductDTO, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*ProductDTO, error)
	Ledger(ctx context.Context, params LedgerParams) (*LedgerPage, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	lookups  lookupRepository
	settings settingsReader
	alerts   notifications.Repository
}

// ServiceParams bundles the dependencies of the inventory service.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Lookups       lookupRepository
	Settings      settingsReader
	Notifications notifications.Repository
}

// NewService builds the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Lookups == nil {
		return nil, fmt.Errorf("catalog lookups are required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader is required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		lookups:  params.Lookups,
		settings: params.Settings,
		alerts:   params.Notifications,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.MinStockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock qty cannot be negative")
	}

	category, err := s.lookups.FindCategoryByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if _, err := s.lookups.FindBrandByID(ctx, input.BrandID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	if _, err := s.lookups.FindUnitByID(ctx, input.UnitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	gstRate, err := s.resolveGSTRate(ctx, input.GSTRate)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:              name,
		CategoryID:        input.CategoryID,
		BrandID:           input.BrandID,
		UnitID:            input.UnitID,
		CostPrice:         input.CostPrice,
		SellingPrice:      input.SellingPrice,
		GSTRate:           gstRate,
		MinStockQty:       input.MinStockQty,
		BatchNumber:       input.BatchNumber,
		ExpiryDate:        input.ExpiryDate,
		WarehouseLocation: input.WarehouseLocation,
		IsActive:          true,
	}

	prefix := strings.ToUpper(strings.TrimSpace(category.CodePrefix))
	if prefix == "" {
		prefix = fallbackCodePrefix
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		seq, err := dbpkg.NextSequence(ctx, tx, "product_code:"+prefix)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate product code")
		}
		product.Code = fmt.Sprintf("%s-%04d", prefix, seq)

		if err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product code collision, retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) resolveGSTRate(ctx context.Context, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		rate := *override
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "gst rate must be between 0 and 100")
		}
		return rate, nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return settings.DefaultGSTRate, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if input.BrandID != nil {
		if _, err := s.lookups.FindBrandByID(ctx, *input.BrandID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
		}
		updates["brand_id"] = *input.BrandID
	}
	if input.UnitID != nil {
		if _, err := s.lookups.FindUnitByID(ctx, *input.UnitID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
		}
		updates["unit_id"] = *input.UnitID
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
		}
		updates["cost_price"] = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
		}
		updates["selling_price"] = *input.SellingPrice
	}
	if input.GSTRate != nil {
		if input.GSTRate.IsNegative() || input.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gst rate must be between 0 and 100")
		}
		updates["gst_rate"] = *input.GSTRate
	}
	if input.MinStockQty != nil {
		if *input.MinStockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock qty cannot be negative")
		}
		updates["min_stock_qty"] = *input.MinStockQty
	}
	if input.BatchNumber != nil {
		updates["batch_number"] = *input.BatchNumber
	}
	if input.ExpiryDate != nil {
		updates["expiry_date"] = *input.ExpiryDate
	}
	if input.WarehouseLocation != nil {
		updates["warehouse_location"] = *input.WarehouseLocation
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	product, err := s.repo.UpdateProduct(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return productFromModel(product), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return productFromModel(product), nil
}

func (s *service) ListProducts(ctx context.Context, params ProductListParams) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, next, err := s.repo.ListProducts(ctx, productQuery{
		Limit:      params.Limit,
		Cursor:     cursor,
		CategoryID: params.CategoryID,
		Search:     strings.TrimSpace(params.Search),
		ActiveOnly: params.ActiveOnly,
		LowStock:   params.LowStock,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := &ProductPage{Items: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		page.Items = append(page.Items, *productFromModel(&rows[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

// DeleteProduct refuses to remove a product whose movement history exists;
// deactivate instead to keep the ledger auditable.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountStockTransactionsByProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count stock transactions")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "product has stock movements, deactivate it instead")
	}
	affected, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ListLowStock(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *productFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*ProductDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Qty == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment qty cannot be zero")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		direction := enums.StockDirectionInbound
		qty := input.Qty
		if input.Qty > 0 {
			if err := repo.IncrementStock(ctx, product.ID, qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
			}
		} else {
			direction = enums.StockDirectionOutbound
			qty = -input.Qty
			ok, err := repo.DecrementStock(ctx, product.ID, qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for adjustment").
					WithDetails(map[string]any{
						"product_code": product.Code,
						"requested":    qty,
						"available":    product.StockQty,
					})
			}
		}

		note := strings.TrimSpace(input.Note)
		var notePtr *string
		if note != "" {
			notePtr = &note
		}
		if err := repo.CreateStockTransaction(ctx, &models.StockTransaction{
			ProductID: product.ID,
			Qty:       qty,
			Direction: direction,
			Reference: enums.StockReferenceAdjustment,
			Note:      notePtr,
			ActorID:   input.ActorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock transaction")
		}

		if direction == enums.StockDirectionOutbound && settings.LowStockAlerts {
			after := product.StockQty - qty
			if after < product.MinStockQty && product.StockQty >= product.MinStockQty {
				if err := lowStockAlert(ctx, s.alerts.WithTx(tx), product, after); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write low stock alert")
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, input.ProductID)
}

func (s *service) Ledger(ctx context.Context, params LedgerParams) (*LedgerPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	var reference *string
	if params.Reference != nil {
		if !params.Reference.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reference filter")
		}
		value := params.Reference.String()
		reference = &value
	}

	rows, next, err := s.repo.ListStockTransactions(ctx, ledgerQuery{
		Limit:     params.Limit,
		Cursor:    cursor,
		ProductID: params.ProductID,
		Reference: reference,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock transactions")
	}

	page := &LedgerPage{Items: make([]StockTransactionDTO, 0, len(rows))}
	for i := range rows {
		page.Items = append(page.Items, transactionFromModel(&rows[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

// lowStockAlert writes the alert row inside the caller's transaction.
func lowStockAlert(ctx context.Context, alerts notifications.Repository, product *models.Product, remaining int) error {
	productID := product.ID
	return alerts.Create(ctx, &models.Notification{
		Kind:      enums.NotificationLowStock,
		Title:     fmt.Sprintf("Low stock: %s", product.Name),
		Body:      fmt.Sprintf("%s (%s) is down to %d units, below the minimum of %d.", product.Name, product.Code, remaining, product.MinStockQty),
		ProductID: &productID,
	})
}
