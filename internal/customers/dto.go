package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/pkg/db/models"
)

// CustomerDTO is the transport shape of a customer.
type CustomerDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	GSTIN         string    `json:"gstin,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpsertCustomerInput carries the writable customer fields. GSTIN is optional
// for unregistered buyers.
type UpsertCustomerInput struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address"`
	GSTIN         string `json:"gstin"`
}

func FromModel(m *models.Customer) *CustomerDTO {
	if m == nil {
		return nil
	}
	return &CustomerDTO{
		ID:            m.ID,
		Name:          m.Name,
		ContactPerson: m.ContactPerson,
		Phone:         m.Phone,
		Email:         m.Email,
		Address:       m.Address,
		GSTIN:         m.GSTIN,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
