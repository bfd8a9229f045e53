package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// Repository exposes customer persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers, optionally filtered to active rows, ordered by name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var customers []models.Customer
	if err := q.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Customer, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Customer{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// CountSalesOrders reports how many sales orders reference the customer.
func (r *Repository) CountSalesOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SalesOrder{}).
		Where("customer_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
