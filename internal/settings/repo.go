package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// Repository reads and writes the singleton settings row.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the singleton row. The row is seeded by the migrations, so a
// missing row is a deployment fault rather than a user error.
func (r *Repository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).First(&settings, "id = ?", models.SettingsRowID).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update applies the given column updates to the singleton row and returns
// the fresh state.
func (r *Repository) Update(ctx context.Context, updates map[string]any) (*models.Settings, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Settings{}).
			Where("id = ?", models.SettingsRowID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.Get(ctx)
}
