package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/pagination"
)

// Repository exposes product and stock-ledger persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, params productQuery) ([]models.Product, *pagination.Cursor, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)

	IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	StockQty(ctx context.Context, productID uuid.UUID) (int, error)

	CreateStockTransaction(ctx context.Context, tx *models.StockTransaction) error
	ListStockTransactions(ctx context.Context, params ledgerQuery) ([]models.StockTransaction, *pagination.Cursor, error)
	CountStockTransactionsByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type productQuery struct {
	Limit      int
	Cursor     *pagination.Cursor
	CategoryID *uuid.UUID
	Search     string
	ActiveOnly bool
	LowStock   bool
}

type ledgerQuery struct {
	Limit     int
	Cursor    *pagination.Cursor
	ProductID *uuid.UUID
	Reference *string
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Unit").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Unit").
		First(&product, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) ListProducts(ctx context.Context, params productQuery) ([]models.Product, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Category").
		Preload("Brand").
		Preload("Unit")
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.LowStock {
		query = query.Where("stock_qty < min_stock_qty")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > normalized {
		products = products[:normalized]
		last := products[normalized-1]
		return products, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return products, nil, nil
}

func (r *repositoryImpl) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindProductByID(ctx, id)
}

func (r *repositoryImpl) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Unit").
		Where("stock_qty < min_stock_qty AND is_active = ?", true).
		Order("stock_qty ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// IncrementStock adds qty units unconditionally.
func (r *repositoryImpl) IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_qty = stock_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID).Error
}

// DecrementStock removes qty units only when enough stock is on hand. The
// guarded UPDATE is the concurrency control: under a concurrent sale of the
// last units, exactly one transaction's predicate matches. Returns false when
// no row qualified.
func (r *repositoryImpl) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_qty = stock_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) StockQty(ctx context.Context, productID uuid.UUID) (int, error) {
	var qty int
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("stock_qty", &qty).Error
	return qty, err
}

func (r *repositoryImpl) CreateStockTransaction(ctx context.Context, tx *models.StockTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repositoryImpl) ListStockTransactions(ctx context.Context, params ledgerQuery) ([]models.StockTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.StockTransaction{})
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Reference != nil {
		query = query.Where("reference = ?", *params.Reference)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.StockTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) CountStockTransactionsByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
