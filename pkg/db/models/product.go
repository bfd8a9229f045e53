package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a stocked item. StockQty is mutated only inside the
// purchasing/sales workflows or via an explicit adjustment; the CHECK constraint
// in the migration keeps it non-negative even if application code misbehaves.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string          `gorm:"column:code;type:text;not null;uniqueIndex"`
	Name              string          `gorm:"column:name;type:text;not null"`
	CategoryID        uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	BrandID           uuid.UUID       `gorm:"column:brand_id;type:uuid;not null"`
	UnitID            uuid.UUID       `gorm:"column:unit_id;type:uuid;not null"`
	CostPrice         decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SellingPrice      decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	GSTRate           decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null"`
	StockQty          int             `gorm:"column:stock_qty;not null;default:0"`
	MinStockQty       int             `gorm:"column:min_stock_qty;not null;default:0"`
	BatchNumber       *string         `gorm:"column:batch_number"`
	ExpiryDate        *time.Time      `gorm:"column:expiry_date"`
	WarehouseLocation *string         `gorm:"column:warehouse_location"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	Category          *Category       `gorm:"foreignKey:CategoryID"`
	Brand             *Brand          `gorm:"foreignKey:BrandID"`
	Unit              *Unit           `gorm:"foreignKey:UnitID"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// NumberSequence backs generated product codes and order numbers. One row per
// scope; the row is bumped inside the creating transaction so two concurrent
// creates can never observe the same value.
type NumberSequence struct {
	Scope string `gorm:"column:scope;type:text;primaryKey"`
	Next  int64  `gorm:"column:next;not null;default:0"`
}
