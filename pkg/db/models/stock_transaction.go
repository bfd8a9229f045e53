package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/pkg/enums"
)

// StockTransaction is the immutable audit trail of every stock movement.
// Order-driven movements carry the originating order id; manual adjustments
// carry none. Rows are only ever inserted.
type StockTransaction struct {
	ID        uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	Qty       int                  `gorm:"column:qty;not null"`
	Direction enums.StockDirection `gorm:"column:direction;type:text;not null"`
	Reference enums.StockReference `gorm:"column:reference;type:text;not null"`
	OrderID   *uuid.UUID           `gorm:"column:order_id;type:uuid;index"`
	Note      *string              `gorm:"column:note"`
	ActorID   uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
