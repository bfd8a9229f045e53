package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// Repository exposes supplier persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a suppliers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List returns suppliers, optionally filtered to active rows, ordered by name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Supplier, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var suppliers []models.Supplier
	if err := q.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Supplier, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Supplier{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// CountPurchaseOrders reports how many purchase orders reference the supplier.
func (r *Repository) CountPurchaseOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("supplier_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
