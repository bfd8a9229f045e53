package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karthikraju/granary-backend/pkg/enums"
)

// PurchaseOrder is the audit header of a supplier purchase. Totals are frozen
// at creation time.
type PurchaseOrder struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Number     string            `gorm:"column:number;type:text;not null;uniqueIndex"`
	SupplierID uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null"`
	OrderDate  time.Time         `gorm:"column:order_date;not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	Subtotal   decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	GSTTotal   decimal.Decimal   `gorm:"column:gst_total;type:numeric(12,2);not null"`
	Discount   decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Total      decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Notes      *string           `gorm:"column:notes"`
	CreatedBy  uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	Supplier   *Supplier         `gorm:"foreignKey:SupplierID"`
	Items      []PurchaseItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseItem snapshots one purchased line at the cost agreed with the supplier.
type PurchaseItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Qty       int             `gorm:"column:qty;not null"`
	UnitCost  decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	GSTRate   decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null"`
	GSTAmount decimal.Decimal `gorm:"column:gst_amount;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
