package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the counterparty of sales orders.
type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;type:text;not null"`
	ContactPerson string    `gorm:"column:contact_person"`
	Phone         string    `gorm:"column:phone"`
	Email         string    `gorm:"column:email"`
	Address       string    `gorm:"column:address"`
	GSTIN         string    `gorm:"column:gstin"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
