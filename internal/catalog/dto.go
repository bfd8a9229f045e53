package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// CategoryDTO is the transport shape of a product category.
type CategoryDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CodePrefix string    `json:"code_prefix"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BrandDTO is the transport shape of a brand lookup row.
type BrandDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnitDTO is the transport shape of a measurement unit.
type UnitDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func categoryFromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{
		ID:         m.ID,
		Name:       m.Name,
		CodePrefix: m.CodePrefix,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func brandFromModel(m *models.Brand) *BrandDTO {
	if m == nil {
		return nil
	}
	return &BrandDTO{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func unitFromModel(m *models.Unit) *UnitDTO {
	if m == nil {
		return nil
	}
	return &UnitDTO{
		ID:           m.ID,
		Name:         m.Name,
		Abbreviation: m.Abbreviation,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
