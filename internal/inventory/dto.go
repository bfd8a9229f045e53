package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
)

// ProductDTO is the transport shape of a product with its lookups resolved.
type ProductDTO struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	CategoryID        uuid.UUID       `json:"category_id"`
	CategoryName      string          `json:"category_name,omitempty"`
	BrandID           uuid.UUID       `json:"brand_id"`
	BrandName         string          `json:"brand_name,omitempty"`
	UnitID            uuid.UUID       `json:"unit_id"`
	UnitName          string          `json:"unit_name,omitempty"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	GSTRate           decimal.Decimal `json:"gst_rate"`
	StockQty          int             `json:"stock_qty"`
	MinStockQty       int             `json:"min_stock_qty"`
	BatchNumber       *string         `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	WarehouseLocation *string         `json:"warehouse_location,omitempty"`
	IsActive          bool            `json:"is_active"`
	LowStock          bool            `json:"low_stock"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CreateProductInput carries the writable fields for a new product. The code
// is always generated server-side.
type CreateProductInput struct {
	Name              string           `json:"name" validate:"required"`
	CategoryID        uuid.UUID        `json:"category_id" validate:"required"`
	BrandID           uuid.UUID        `json:"brand_id" validate:"required"`
	UnitID            uuid.UUID        `json:"unit_id" validate:"required"`
	CostPrice         decimal.Decimal  `json:"cost_price"`
	SellingPrice      decimal.Decimal  `json:"selling_price"`
	GSTRate           *decimal.Decimal `json:"gst_rate"`
	MinStockQty       int              `json:"min_stock_qty" validate:"gte=0"`
	BatchNumber       *string          `json:"batch_number"`
	ExpiryDate        *time.Time       `json:"expiry_date"`
	WarehouseLocation *string          `json:"warehouse_location"`
}

// UpdateProductInput carries the mutable fields; nil means unchanged.
// Stock quantity is deliberately absent: it only moves through orders and
// explicit adjustments.
type UpdateProductInput struct {
	Name              *string          `json:"name"`
	BrandID           *uuid.UUID       `json:"brand_id"`
	UnitID            *uuid.UUID       `json:"unit_id"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SellingPrice      *decimal.Decimal `json:"selling_price"`
	GSTRate           *decimal.Decimal `json:"gst_rate"`
	MinStockQty       *int             `json:"min_stock_qty"`
	BatchNumber       *string          `json:"batch_number"`
	ExpiryDate        *time.Time       `json:"expiry_date"`
	WarehouseLocation *string          `json:"warehouse_location"`
	IsActive          *bool            `json:"is_active"`
}

// AdjustStockInput is a manual correction. Qty is signed: positive adds,
// negative removes.
type AdjustStockInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required"`
	Note      string    `json:"note"`
	ActorID   uuid.UUID `json:"-"`
}

// ProductListParams filters and paginates the product list.
type ProductListParams struct {
	Limit      int
	Cursor     string
	CategoryID *uuid.UUID
	Search     string
	ActiveOnly bool
	LowStock   bool
}

// ProductPage is one page of the product list.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// StockTransactionDTO is the transport shape of one ledger row.
type StockTransactionDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"product_id"`
	Qty       int                  `json:"qty"`
	Direction enums.StockDirection `json:"direction"`
	Reference enums.StockReference `json:"reference"`
	OrderID   *uuid.UUID           `json:"order_id,omitempty"`
	Note      *string              `json:"note,omitempty"`
	ActorID   uuid.UUID            `json:"actor_id"`
	CreatedAt time.Time            `json:"created_at"`
}

// LedgerParams filters and paginates the stock transaction ledger.
type LedgerParams struct {
	Limit     int
	Cursor    string
	ProductID *uuid.UUID
	Reference *enums.StockReference
}

// LedgerPage is one page of the stock ledger.
type LedgerPage struct {
	Items      []StockTransactionDTO `json:"items"`
	NextCursor *string               `json:"next_cursor,omitempty"`
}

func productFromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:                m.ID,
		Code:              m.Code,
		Name:              m.Name,
		CategoryID:        m.CategoryID,
		BrandID:           m.BrandID,
		UnitID:            m.UnitID,
		CostPrice:         m.CostPrice,
		SellingPrice:      m.SellingPrice,
		GSTRate:           m.GSTRate,
		StockQty:          m.StockQty,
		MinStockQty:       m.MinStockQty,
		BatchNumber:       m.BatchNumber,
		ExpiryDate:        m.ExpiryDate,
		WarehouseLocation: m.WarehouseLocation,
		IsActive:          m.IsActive,
		LowStock:          m.StockQty < m.MinStockQty,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Category != nil {
		dto.CategoryName = m.Category.Name
	}
	if m.Brand != nil {
		dto.BrandName = m.Brand.Name
	}
	if m.Unit != nil {
		dto.UnitName = m.Unit.Name
	}
	return dto
}

func transactionFromModel(m *models.StockTransaction) StockTransactionDTO {
	return StockTransactionDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		Qty:       m.Qty,
		Direction: m.Direction,
		Reference: m.Reference,
		OrderID:   m.OrderID,
		Note:      m.Note,
		ActorID:   m.ActorID,
		CreatedAt: m.CreatedAt,
	}
}
