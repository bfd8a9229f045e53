package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/pkg/enums"
)

// Notification is an in-app alert row written in the same unit of work as the
// event that triggered it (low stock crossings, order creation).
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body;not null"`
	ProductID *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
