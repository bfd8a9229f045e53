package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// Repository exposes persistence for the three lookup tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Category, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Category{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindCategoryByID(ctx, id)
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// CountProductsByCategory reports how many products still reference the category.
func (r *Repository) CountProductsByCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if brand.ID == uuid.Nil {
		brand.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *Repository) FindBrandByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *Repository) DeleteBrand(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Brand{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// CountProductsByBrand reports how many products still reference the brand.
func (r *Repository) CountProductsByBrand(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateUnit(ctx context.Context, unit *models.Unit) error {
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *Repository) FindUnitByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *Repository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *Repository) DeleteUnit(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Unit{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// CountProductsByUnit reports how many products still reference the unit.
func (r *Repository) CountProductsByUnit(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("unit_id = ?", id).
		Count(&count).Error
	return count, err
}
